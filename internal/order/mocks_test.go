package order

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockPublisher is a mock implementation of events.Publisher for testing
type MockPublisher struct {
	mu        sync.Mutex
	Published [][]byte
	Topics    []string

	PublishFunc func(ctx context.Context, topic string, msg []byte) error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, msg []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, msg)
	m.Topics = append(m.Topics, topic)
	return nil
}

// MockTicketRepo is a mock implementation of TicketRepo for testing
type MockTicketRepo struct {
	mu      sync.RWMutex
	tickets map[uuid.UUID]*Ticket

	CreateFunc       func(ctx context.Context, ticket *Ticket) error
	GetFunc          func(ctx context.Context, id uuid.UUID) (*Ticket, error)
	SaveFunc         func(ctx context.Context, ticket *Ticket) error
	ReplaceItemsFunc func(ctx context.Context, id uuid.UUID, items []ItemSnapshot, total string) error
	DeleteFunc       func(ctx context.Context, id uuid.UUID) error
}

func NewMockTicketRepo() *MockTicketRepo {
	return &MockTicketRepo{
		tickets: make(map[uuid.UUID]*Ticket),
	}
}

func (m *MockTicketRepo) Create(ctx context.Context, ticket *Ticket) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, ticket)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[ticket.ID] = ticket
	return nil
}

func (m *MockTicketRepo) Get(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tickets[id], nil
}

func (m *MockTicketRepo) List(ctx context.Context) ([]*Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Ticket, 0, len(m.tickets))
	for _, t := range m.tickets {
		out = append(out, t)
	}
	return out, nil
}

func (m *MockTicketRepo) ListByTable(ctx context.Context, tableID uuid.UUID) ([]*Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Ticket, 0)
	for _, t := range m.tickets {
		if t.TableID == tableID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockTicketRepo) ListByStatus(ctx context.Context, status string) ([]*Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Ticket, 0)
	for _, t := range m.tickets {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockTicketRepo) Save(ctx context.Context, ticket *Ticket) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, ticket)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[ticket.ID] = ticket
	return nil
}

func (m *MockTicketRepo) ReplaceItems(ctx context.Context, id uuid.UUID, items []ItemSnapshot, total string) error {
	if m.ReplaceItemsFunc != nil {
		return m.ReplaceItemsFunc(ctx, id, items, total)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.tickets[id]
	if !ok {
		return nil
	}
	ticket.Items = items
	ticket.Total = total
	return nil
}

func (m *MockTicketRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tickets, id)
	return nil
}
