package event

import "time"

const (
	SettlementsTopic = "tickets.settled"

	EventTicketSettled        = "ticket.settled"
	EventTicketSplitReconcile = "ticket.split.reconciled"
	EventTicketSplitRejected  = "ticket.split.rejected"
)

// SettlementEvent records how a ticket was paid. Published to a durable
// stream; these are financial records, not UI chatter.
type SettlementEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	TicketID   string    `json:"ticket_id"`
	TableID    string    `json:"table_id,omitempty"`
	Method     string    `json:"method,omitempty"`
	ShareCount int       `json:"share_count,omitempty"`
	Total      string    `json:"total"`
}

// SplitOutcomeEvent is emitted when a split attempt reaches a terminal
// state, reconciled or rejected, so operations can watch for repeated
// shortfalls at a table.
type SplitOutcomeEvent struct {
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	TicketID    string    `json:"ticket_id"`
	Persons     int       `json:"persons"`
	Total       string    `json:"total"`
	Declared    string    `json:"declared"`
	Discrepancy string    `json:"discrepancy,omitempty"`
}
