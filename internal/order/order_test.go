package order

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderAddItemMergesSameSlot(t *testing.T) {
	taco := testProduct("Taco de birria", "3.00", withVariants("Maciza", "Surtida"))
	ord := NewOrder()

	if err := ord.AddItem(taco, decimal.NewFromInt(2), "Maciza"); err != nil {
		t.Fatalf("AddItem() unexpected error: %v", err)
	}
	if err := ord.AddItem(taco, decimal.NewFromInt(3), "Maciza"); err != nil {
		t.Fatalf("AddItem() unexpected error: %v", err)
	}

	if ord.Len() != 1 {
		t.Fatalf("Order.Len() = %d, want 1", ord.Len())
	}

	li, err := ord.ItemAt(0)
	if err != nil {
		t.Fatalf("ItemAt() unexpected error: %v", err)
	}
	if want := decimal.NewFromInt(5); !li.Quantity.Equal(want) {
		t.Errorf("merged Quantity = %s, want %s", li.Quantity, want)
	}
}

func TestOrderAddItemDistinctVariantsStaySeparate(t *testing.T) {
	taco := testProduct("Taco de birria", "3.00", withVariants("Maciza", "Surtida"))
	ord := NewOrder()

	if err := ord.AddItem(taco, decimal.NewFromInt(1), "Maciza"); err != nil {
		t.Fatalf("AddItem() unexpected error: %v", err)
	}
	if err := ord.AddItem(taco, decimal.NewFromInt(1), "Surtida"); err != nil {
		t.Fatalf("AddItem() unexpected error: %v", err)
	}

	if ord.Len() != 2 {
		t.Fatalf("Order.Len() = %d, want 2", ord.Len())
	}

	items := ord.Items()
	if items[0].Variant != "Maciza" || items[1].Variant != "Surtida" {
		t.Errorf("insertion order = [%q, %q], want [Maciza, Surtida]", items[0].Variant, items[1].Variant)
	}
}

func TestOrderAddItemValidation(t *testing.T) {
	tests := []struct {
		name     string
		product  *Product
		quantity string
		variant  string
	}{
		{
			name:     "zeroQuantity",
			product:  testProduct("Consome", "4.50"),
			quantity: "0",
		},
		{
			name:     "fractionalOnUnitProduct",
			product:  testProduct("Consome", "4.50"),
			quantity: "1.5",
		},
		{
			name:     "missingRequiredVariant",
			product:  testProduct("Taco de birria", "3.00", withVariants("Maciza")),
			quantity: "1",
		},
		{
			name:     "extraneousVariant",
			product:  testProduct("Consome", "4.50"),
			quantity: "1",
			variant:  "Grande",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ord := NewOrder()
			err := ord.AddItem(tt.product, decimal.RequireFromString(tt.quantity), tt.variant)

			if err == nil {
				t.Fatal("AddItem() expected error, got nil")
			}
			if !IsValidation(err) {
				t.Errorf("AddItem() error = %v, want ValidationError", err)
			}
			if ord.Len() != 0 {
				t.Errorf("rejected AddItem() must not append, Len = %d", ord.Len())
			}
		})
	}
}

func TestOrderAddItemNilProduct(t *testing.T) {
	ord := NewOrder()
	if err := ord.AddItem(nil, decimal.NewFromInt(1), ""); err == nil {
		t.Fatal("AddItem() with nil product should fail")
	}
}

func TestOrderAddItemFractionalMerge(t *testing.T) {
	carne := testProduct("Carne por kilo", "12.00", fractional())
	ord := NewOrder()

	if err := ord.AddItem(carne, decimal.RequireFromString("0.5"), ""); err != nil {
		t.Fatalf("AddItem() unexpected error: %v", err)
	}
	if err := ord.AddItem(carne, decimal.RequireFromString("0.25"), ""); err != nil {
		t.Fatalf("AddItem() unexpected error: %v", err)
	}

	li, err := ord.ItemAt(0)
	if err != nil {
		t.Fatalf("ItemAt() unexpected error: %v", err)
	}
	if want := decimal.RequireFromString("0.75"); !li.Quantity.Equal(want) {
		t.Errorf("merged Quantity = %s, want %s", li.Quantity, want)
	}
	if want := decimal.RequireFromString("9"); !ord.Total().Equal(want) {
		t.Errorf("Order.Total() = %s, want %s", ord.Total(), want)
	}
}

func TestOrderUpdateItem(t *testing.T) {
	taco := testProduct("Taco de birria", "3.00", withVariants("Maciza", "Surtida"))

	tests := []struct {
		name     string
		index    int
		quantity string
		variant  string
		wantErr  bool
		wantIdx  bool
	}{
		{
			name:     "replacesQuantityAndVariant",
			index:    0,
			quantity: "4",
			variant:  "Surtida",
		},
		{
			name:     "rejectsInvalidQuantity",
			index:    0,
			quantity: "0",
			variant:  "Maciza",
			wantErr:  true,
		},
		{
			name:     "rejectsOutOfRangeIndex",
			index:    5,
			quantity: "1",
			variant:  "Maciza",
			wantErr:  true,
			wantIdx:  true,
		},
		{
			name:     "rejectsNegativeIndex",
			index:    -1,
			quantity: "1",
			variant:  "Maciza",
			wantErr:  true,
			wantIdx:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ord := NewOrder()
			if err := ord.AddItem(taco, decimal.NewFromInt(2), "Maciza"); err != nil {
				t.Fatalf("AddItem() unexpected error: %v", err)
			}

			err := ord.UpdateItem(tt.index, decimal.RequireFromString(tt.quantity), tt.variant)

			if tt.wantErr {
				if err == nil {
					t.Fatal("UpdateItem() expected error, got nil")
				}
				if tt.wantIdx && !IsIndex(err) {
					t.Errorf("UpdateItem() error = %v, want IndexError", err)
				}
				if !tt.wantIdx && !IsValidation(err) {
					t.Errorf("UpdateItem() error = %v, want ValidationError", err)
				}

				// Failed update must leave the line untouched.
				li, _ := ord.ItemAt(0)
				if !li.Quantity.Equal(decimal.NewFromInt(2)) || li.Variant != "Maciza" {
					t.Errorf("failed UpdateItem() mutated the line: qty=%s variant=%q", li.Quantity, li.Variant)
				}
				return
			}

			if err != nil {
				t.Fatalf("UpdateItem() unexpected error: %v", err)
			}
			li, _ := ord.ItemAt(0)
			if !li.Quantity.Equal(decimal.RequireFromString(tt.quantity)) {
				t.Errorf("UpdateItem() Quantity = %s, want %s", li.Quantity, tt.quantity)
			}
			if li.Variant != tt.variant {
				t.Errorf("UpdateItem() Variant = %q, want %q", li.Variant, tt.variant)
			}
		})
	}
}

func TestOrderUpdateItemReplacesNotIncrements(t *testing.T) {
	consome := testProduct("Consome", "4.50")
	ord := NewOrder()

	if err := ord.AddItem(consome, decimal.NewFromInt(2), ""); err != nil {
		t.Fatalf("AddItem() unexpected error: %v", err)
	}
	if err := ord.UpdateItem(0, decimal.NewFromInt(3), ""); err != nil {
		t.Fatalf("UpdateItem() unexpected error: %v", err)
	}

	li, _ := ord.ItemAt(0)
	if want := decimal.NewFromInt(3); !li.Quantity.Equal(want) {
		t.Errorf("UpdateItem() Quantity = %s, want %s (replace, not add)", li.Quantity, want)
	}
}

func TestOrderUpdateItemKeepsNotes(t *testing.T) {
	consome := testProduct("Consome", "4.50")
	ord := NewOrder()

	if err := ord.AddItem(consome, decimal.NewFromInt(1), ""); err != nil {
		t.Fatalf("AddItem() unexpected error: %v", err)
	}
	if err := ord.SetNotes(0, "sin cebolla"); err != nil {
		t.Fatalf("SetNotes() unexpected error: %v", err)
	}
	if err := ord.UpdateItem(0, decimal.NewFromInt(2), ""); err != nil {
		t.Fatalf("UpdateItem() unexpected error: %v", err)
	}

	li, _ := ord.ItemAt(0)
	if li.Notes != "sin cebolla" {
		t.Errorf("UpdateItem() Notes = %q, want %q", li.Notes, "sin cebolla")
	}
}

func TestOrderRemoveItem(t *testing.T) {
	taco := testProduct("Taco de birria", "3.00", withVariants("Maciza", "Surtida"))
	consome := testProduct("Consome", "4.50")

	ord := NewOrder()
	if err := ord.AddItem(taco, decimal.NewFromInt(1), "Maciza"); err != nil {
		t.Fatalf("AddItem() unexpected error: %v", err)
	}
	if err := ord.AddItem(consome, decimal.NewFromInt(1), ""); err != nil {
		t.Fatalf("AddItem() unexpected error: %v", err)
	}
	if err := ord.AddItem(taco, decimal.NewFromInt(1), "Surtida"); err != nil {
		t.Fatalf("AddItem() unexpected error: %v", err)
	}

	if err := ord.RemoveItem(1); err != nil {
		t.Fatalf("RemoveItem() unexpected error: %v", err)
	}

	if ord.Len() != 2 {
		t.Fatalf("Order.Len() = %d, want 2", ord.Len())
	}

	// Later lines shift down; index 1 is now the Surtida line.
	li, _ := ord.ItemAt(1)
	if li.Variant != "Surtida" {
		t.Errorf("line at index 1 = %q, want Surtida", li.Variant)
	}

	if err := ord.RemoveItem(5); err == nil {
		t.Error("RemoveItem() out of range should fail")
	} else if !IsIndex(err) {
		t.Errorf("RemoveItem() error = %v, want IndexError", err)
	}
}

func TestOrderTotal(t *testing.T) {
	taco := testProduct("Taco de birria", "3.00", withVariants("Maciza", "Surtida"))
	carne := testProduct("Carne por kilo", "12.00", fractional())

	ord := NewOrder()
	if ord.Total().Sign() != 0 {
		t.Errorf("empty Order.Total() = %s, want 0", ord.Total())
	}

	if err := ord.AddItem(taco, decimal.NewFromInt(3), "Maciza"); err != nil {
		t.Fatalf("AddItem() unexpected error: %v", err)
	}
	if err := ord.AddItem(carne, decimal.RequireFromString("0.5"), ""); err != nil {
		t.Fatalf("AddItem() unexpected error: %v", err)
	}

	if want := decimal.RequireFromString("15"); !ord.Total().Equal(want) {
		t.Errorf("Order.Total() = %s, want %s", ord.Total(), want)
	}

	if err := ord.RemoveItem(0); err != nil {
		t.Fatalf("RemoveItem() unexpected error: %v", err)
	}

	if want := decimal.RequireFromString("6"); !ord.Total().Equal(want) {
		t.Errorf("Order.Total() after removal = %s, want %s", ord.Total(), want)
	}
}

func TestOrderSetNotes(t *testing.T) {
	consome := testProduct("Consome", "4.50")
	ord := NewOrder()

	if err := ord.AddItem(consome, decimal.NewFromInt(1), ""); err != nil {
		t.Fatalf("AddItem() unexpected error: %v", err)
	}

	if err := ord.SetNotes(0, "extra limon"); err != nil {
		t.Fatalf("SetNotes() unexpected error: %v", err)
	}
	li, _ := ord.ItemAt(0)
	if li.Notes != "extra limon" {
		t.Errorf("SetNotes() Notes = %q, want %q", li.Notes, "extra limon")
	}

	if err := ord.SetNotes(3, "x"); err == nil {
		t.Error("SetNotes() out of range should fail")
	}
}

func TestOrderItemsReturnsCopy(t *testing.T) {
	consome := testProduct("Consome", "4.50")
	ord := NewOrder()

	if err := ord.AddItem(consome, decimal.NewFromInt(1), ""); err != nil {
		t.Fatalf("AddItem() unexpected error: %v", err)
	}

	items := ord.Items()
	items[0] = nil

	if li, err := ord.ItemAt(0); err != nil || li == nil {
		t.Error("mutating the returned slice must not touch the aggregate")
	}
}

func TestHydrateRestoresLinesAndPrices(t *testing.T) {
	taco := testProduct("Taco de birria", "3.00", withVariants("Maciza", "Surtida"))
	carne := testProduct("Carne por kilo", "12.00", fractional())

	ord := NewOrder()
	if err := ord.AddItem(taco, decimal.NewFromInt(2), "Maciza"); err != nil {
		t.Fatalf("AddItem() unexpected error: %v", err)
	}
	if err := ord.AddItem(carne, decimal.RequireFromString("0.5"), ""); err != nil {
		t.Fatalf("AddItem() unexpected error: %v", err)
	}
	if err := ord.SetNotes(0, "sin cilantro"); err != nil {
		t.Fatalf("SetNotes() unexpected error: %v", err)
	}

	restored, err := Hydrate(ord.Snapshots())
	if err != nil {
		t.Fatalf("Hydrate() unexpected error: %v", err)
	}

	if restored.Len() != 2 {
		t.Fatalf("Hydrate() Len = %d, want 2", restored.Len())
	}
	if !restored.Total().Equal(ord.Total()) {
		t.Errorf("Hydrate() Total = %s, want %s", restored.Total(), ord.Total())
	}

	li, _ := restored.ItemAt(0)
	if li.Variant != "Maciza" {
		t.Errorf("Hydrate() Variant = %q, want Maciza", li.Variant)
	}
	if li.Notes != "sin cilantro" {
		t.Errorf("Hydrate() Notes = %q, want %q", li.Notes, "sin cilantro")
	}

	// The restored fractional line must keep accepting fractional edits.
	if err := restored.UpdateItem(1, decimal.RequireFromString("0.75"), ""); err != nil {
		t.Errorf("restored fractional line rejected fractional quantity: %v", err)
	}
}

func TestHydrateKeepsSnapshotPrice(t *testing.T) {
	snapshots := []ItemSnapshot{
		{
			ProductID: "550e8400-e29b-41d4-a716-446655440010",
			Name:      "Taco de birria",
			UnitPrice: "3.00",
			Quantity:  "2",
		},
	}

	ord, err := Hydrate(snapshots)
	if err != nil {
		t.Fatalf("Hydrate() unexpected error: %v", err)
	}

	li, _ := ord.ItemAt(0)
	if want := decimal.RequireFromString("3.00"); !li.Product.UnitPrice.Equal(want) {
		t.Errorf("Hydrate() UnitPrice = %s, want %s", li.Product.UnitPrice, want)
	}
	if want := decimal.RequireFromString("6"); !ord.Total().Equal(want) {
		t.Errorf("Hydrate() Total = %s, want %s", ord.Total(), want)
	}
}

func TestHydrateInvalidSnapshot(t *testing.T) {
	tests := []struct {
		name      string
		snapshots []ItemSnapshot
	}{
		{
			name: "badProductID",
			snapshots: []ItemSnapshot{
				{ProductID: "not-a-uuid", UnitPrice: "3.00", Quantity: "1"},
			},
		},
		{
			name: "badPrice",
			snapshots: []ItemSnapshot{
				{ProductID: "550e8400-e29b-41d4-a716-446655440010", UnitPrice: "abc", Quantity: "1"},
			},
		},
		{
			name: "badQuantity",
			snapshots: []ItemSnapshot{
				{ProductID: "550e8400-e29b-41d4-a716-446655440010", UnitPrice: "3.00", Quantity: "abc"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Hydrate(tt.snapshots); err == nil {
				t.Error("Hydrate() expected error, got nil")
			}
		})
	}
}
