package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the in-memory aggregate for one open ticket: an ordered sequence
// of line items under a single interactive editor. All mutations are
// synchronous; nothing here blocks or caches.
//
// Insertion order is user-visible and survives edits. Two lines are the
// same slot iff product id and variant both match, so "Taco de birria /
// Maciza" and "Taco de birria / Surtida" stay separate rows while repeat
// submissions of the same pair accumulate.
type Order struct {
	items []*LineItem
}

func NewOrder() *Order {
	return &Order{}
}

// AddItem merges into an existing slot or appends a new line at the end.
// The submitted quantity and, on merge, the resulting quantity are both
// validated like a fresh construction.
func (o *Order) AddItem(product *Product, quantity decimal.Decimal, variant string) error {
	if product == nil {
		return ValidationError{Field: "product", Message: "product is required"}
	}
	if err := validateQuantity(product, quantity); err != nil {
		return err
	}
	if err := validateVariant(product, variant); err != nil {
		return err
	}

	if i := o.slotIndex(product.ID, variant); i >= 0 {
		existing := o.items[i]
		merged := existing.Quantity.Add(quantity)
		if err := validateQuantity(existing.Product, merged); err != nil {
			return err
		}
		existing.Quantity = merged
		return nil
	}

	li, err := NewLineItem(product, quantity, variant)
	if err != nil {
		return err
	}
	o.items = append(o.items, li)
	return nil
}

// UpdateItem replaces the line at index wholesale. This is the explicit
// edit flow; it never increments.
func (o *Order) UpdateItem(index int, quantity decimal.Decimal, variant string) error {
	if index < 0 || index >= len(o.items) {
		return IndexError{Index: index, Len: len(o.items)}
	}
	current := o.items[index]
	replacement, err := NewLineItem(current.Product, quantity, variant)
	if err != nil {
		return err
	}
	replacement.Notes = current.Notes
	o.items[index] = replacement
	return nil
}

// RemoveItem deletes the line at index, shifting later lines down.
func (o *Order) RemoveItem(index int) error {
	if index < 0 || index >= len(o.items) {
		return IndexError{Index: index, Len: len(o.items)}
	}
	o.items = append(o.items[:index], o.items[index+1:]...)
	return nil
}

// SetNotes attaches free-text notes to the line at index. Notes do not
// participate in slot identity.
func (o *Order) SetNotes(index int, notes string) error {
	if index < 0 || index >= len(o.items) {
		return IndexError{Index: index, Len: len(o.items)}
	}
	o.items[index].Notes = notes
	return nil
}

// Items returns the lines in insertion order. The slice is a copy; the
// lines themselves are the aggregate's and must not be mutated by callers.
func (o *Order) Items() []*LineItem {
	out := make([]*LineItem, len(o.items))
	copy(out, o.items)
	return out
}

func (o *Order) Len() int {
	return len(o.items)
}

// Total recomputes the sum of line totals on every call. O(n), never
// cached, never stale.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, li := range o.items {
		total = total.Add(li.LineTotal())
	}
	return total
}

// ItemAt returns the line at index.
func (o *Order) ItemAt(index int) (*LineItem, error) {
	if index < 0 || index >= len(o.items) {
		return nil, IndexError{Index: index, Len: len(o.items)}
	}
	return o.items[index], nil
}

// Hydrate rebuilds the sequence from persisted snapshots when resuming an
// existing ticket. Snapshot prices are authoritative: the ticket keeps the
// price quoted when the line was taken even if the live catalog moved.
func Hydrate(snapshots []ItemSnapshot) (*Order, error) {
	o := NewOrder()
	for _, snap := range snapshots {
		product, err := snap.product()
		if err != nil {
			return nil, err
		}
		quantity, err := decimal.NewFromString(snap.Quantity)
		if err != nil {
			return nil, ValidationError{Field: "quantity", Message: "persisted quantity is not a number"}
		}
		li, err := NewLineItem(product, quantity, snap.Variant)
		if err != nil {
			return nil, err
		}
		li.Notes = snap.Notes
		o.items = append(o.items, li)
	}
	return o, nil
}

// Snapshots converts the current lines to their persisted representation.
func (o *Order) Snapshots() []ItemSnapshot {
	out := make([]ItemSnapshot, 0, len(o.items))
	for _, li := range o.items {
		out = append(out, newItemSnapshot(li))
	}
	return out
}

// slotIndex returns the index of the line matching (productID, variant),
// or -1.
func (o *Order) slotIndex(productID uuid.UUID, variant string) int {
	for i, li := range o.items {
		if li.SameSlot(productID, variant) {
			return i
		}
	}
	return -1
}
