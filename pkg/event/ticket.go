package event

import "time"

const (
	TicketItemsTopic = "tickets.items"

	EventTicketItemAdded   = "ticket.item.added"
	EventTicketItemUpdated = "ticket.item.updated"
	EventTicketItemRemoved = "ticket.item.removed"
	EventTicketSaved       = "ticket.saved"
)

// TicketItemEvent is published whenever a line of an open ticket changes.
// Consumed by the kitchen and operations services to mirror the ticket as
// the waiter builds it.
type TicketItemEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	TicketID   string    `json:"ticket_id"`
	ProductID  string    `json:"product_id"`
	Quantity   string    `json:"quantity"`
	Variant    string    `json:"variant,omitempty"`
	LineTotal  string    `json:"line_total"`

	// Denormalized for display
	ProductName string `json:"product_name,omitempty"`
	TableID     string `json:"table_id,omitempty"`
}

// TicketSavedEvent marks the point where an in-memory ticket was handed to
// the persistence collaborator and the editing session ended.
type TicketSavedEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	TicketID   string    `json:"ticket_id"`
	TableID    string    `json:"table_id,omitempty"`
	ItemCount  int       `json:"item_count"`
	Total      string    `json:"total"`
	Takeaway   bool      `json:"takeaway,omitempty"`
}
