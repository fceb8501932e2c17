package order

import (
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ticket is the persisted form of an order: the document written when a
// waiter saves and read back when a table's ticket is resumed. Money and
// quantities are stored as strings so the documents stay exact and
// driver-agnostic.
type Ticket struct {
	ID           uuid.UUID      `json:"id" bson:"_id"`
	TableID      uuid.UUID      `json:"table_id" bson:"table_id"`
	Status       string         `json:"status" bson:"status"`
	Takeaway     bool           `json:"takeaway" bson:"takeaway"`
	CustomerName string         `json:"customer_name,omitempty" bson:"customer_name,omitempty"`
	Items        []ItemSnapshot `json:"items" bson:"items"`
	Total        string         `json:"total" bson:"total"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
	CreatedBy    string         `json:"created_by" bson:"created_by"`
	UpdatedAt    time.Time      `json:"updated_at" bson:"updated_at"`
	UpdatedBy    string         `json:"updated_by" bson:"updated_by"`
}

// ItemSnapshot freezes a line at save time: product id, display name,
// quoted unit price, quantity and variant. The snapshot price wins over
// the live catalog when the ticket is rehydrated.
type ItemSnapshot struct {
	ProductID string `json:"product_id" bson:"product_id"`
	Name      string `json:"name" bson:"name"`
	UnitPrice string `json:"unit_price" bson:"unit_price"`
	Quantity  string `json:"quantity" bson:"quantity"`
	Variant   string `json:"variant,omitempty" bson:"variant,omitempty"`
	Notes     string `json:"notes,omitempty" bson:"notes,omitempty"`

	// Fractional is carried so a rehydrated line keeps accepting the
	// quantity shape it was sold with.
	Fractional bool `json:"fractional,omitempty" bson:"fractional,omitempty"`
}

func (t *Ticket) GetID() uuid.UUID {
	return t.ID
}

func (t *Ticket) ResourceType() string {
	return "ticket"
}

func (t *Ticket) SetID(id uuid.UUID) {
	t.ID = id
}

func NewTicket(tableID uuid.UUID) *Ticket {
	return &Ticket{
		ID:      apt.GenerateNewID(),
		TableID: tableID,
		Status:  "open",
	}
}

func (t *Ticket) EnsureID() {
	if t.ID == uuid.Nil {
		t.ID = apt.GenerateNewID()
	}
}

func (t *Ticket) BeforeCreate() {
	t.EnsureID()
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
}

func (t *Ticket) BeforeUpdate() {
	t.UpdatedAt = time.Now()
}

func (t *Ticket) MarkClosed() {
	t.Status = "closed"
	t.UpdatedAt = time.Now()
}

func (t *Ticket) Cancel() {
	t.Status = "cancelled"
	t.UpdatedAt = time.Now()
}

// SetItems replaces the snapshot list and recomputes the stored total.
func (t *Ticket) SetItems(snapshots []ItemSnapshot) error {
	total := decimal.Zero
	for _, snap := range snapshots {
		price, err := decimal.NewFromString(snap.UnitPrice)
		if err != nil {
			return ValidationError{Field: "unit_price", Message: "snapshot price is not a number"}
		}
		quantity, err := decimal.NewFromString(snap.Quantity)
		if err != nil {
			return ValidationError{Field: "quantity", Message: "snapshot quantity is not a number"}
		}
		total = total.Add(price.Mul(quantity))
	}
	t.Items = snapshots
	t.Total = total.String()
	return nil
}

func newItemSnapshot(li *LineItem) ItemSnapshot {
	return ItemSnapshot{
		ProductID:  li.Product.ID.String(),
		Name:       li.Product.Name,
		UnitPrice:  li.Product.UnitPrice.String(),
		Quantity:   li.Quantity.String(),
		Variant:    li.Variant,
		Notes:      li.Notes,
		Fractional: li.Product.IsFractional,
	}
}

// product reconstructs a catalog-independent product from the snapshot.
// RequiresVariant is inferred: a snapshot with a variant was sold as a
// variant line, and the recorded variant stays the only accepted one.
func (s ItemSnapshot) product() (*Product, error) {
	id, err := uuid.Parse(s.ProductID)
	if err != nil {
		return nil, ValidationError{Field: "product_id", Message: "persisted product id is invalid"}
	}
	price, err := decimal.NewFromString(s.UnitPrice)
	if err != nil {
		return nil, ValidationError{Field: "unit_price", Message: "persisted price is not a number"}
	}
	p := &Product{
		ID:           id,
		Name:         s.Name,
		UnitPrice:    price,
		IsFractional: s.Fractional,
	}
	if s.Variant != "" {
		p.RequiresVariant = true
		p.Variants = []string{s.Variant}
	}
	return p, nil
}
