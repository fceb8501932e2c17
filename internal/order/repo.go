package order

import (
	"context"

	"github.com/google/uuid"
)

type TicketRepo interface {
	Create(ctx context.Context, ticket *Ticket) error
	Get(ctx context.Context, id uuid.UUID) (*Ticket, error)
	List(ctx context.Context) ([]*Ticket, error)
	ListByTable(ctx context.Context, tableID uuid.UUID) ([]*Ticket, error)
	ListByStatus(ctx context.Context, status string) ([]*Ticket, error)
	Save(ctx context.Context, ticket *Ticket) error
	ReplaceItems(ctx context.Context, id uuid.UUID, items []ItemSnapshot, total string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
