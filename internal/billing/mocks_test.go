package billing

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/birriaclub/pos/internal/order"
)

func mustUUID(s string) uuid.UUID {
	return uuid.MustParse(s)
}

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

// MockBillCloser is a mock implementation of BillCloser for testing
type MockBillCloser struct {
	mu       sync.Mutex
	Closed   []Settlement
	Receipts []*ReceiptSummary

	CloseFunc func(ctx context.Context, ticketID uuid.UUID, settlement Settlement) (*ReceiptSummary, error)
}

func NewMockBillCloser() *MockBillCloser {
	return &MockBillCloser{}
}

func (m *MockBillCloser) Close(ctx context.Context, ticketID uuid.UUID, settlement Settlement) (*ReceiptSummary, error) {
	if m.CloseFunc != nil {
		return m.CloseFunc(ctx, ticketID, settlement)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = append(m.Closed, settlement)
	receipt := &ReceiptSummary{TableNumber: "5"}
	m.Receipts = append(m.Receipts, receipt)
	return receipt, nil
}

// MockTicketRepo is a mock implementation of order.TicketRepo for testing
type MockTicketRepo struct {
	mu      sync.RWMutex
	tickets map[uuid.UUID]*order.Ticket

	SaveFunc func(ctx context.Context, ticket *order.Ticket) error
}

func NewMockTicketRepo() *MockTicketRepo {
	return &MockTicketRepo{
		tickets: make(map[uuid.UUID]*order.Ticket),
	}
}

func (m *MockTicketRepo) Create(ctx context.Context, ticket *order.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[ticket.ID] = ticket
	return nil
}

func (m *MockTicketRepo) Get(ctx context.Context, id uuid.UUID) (*order.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tickets[id], nil
}

func (m *MockTicketRepo) List(ctx context.Context) ([]*order.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*order.Ticket, 0, len(m.tickets))
	for _, t := range m.tickets {
		out = append(out, t)
	}
	return out, nil
}

func (m *MockTicketRepo) ListByTable(ctx context.Context, tableID uuid.UUID) ([]*order.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*order.Ticket, 0)
	for _, t := range m.tickets {
		if t.TableID == tableID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockTicketRepo) ListByStatus(ctx context.Context, status string) ([]*order.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*order.Ticket, 0)
	for _, t := range m.tickets {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockTicketRepo) Save(ctx context.Context, ticket *order.Ticket) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, ticket)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[ticket.ID] = ticket
	return nil
}

func (m *MockTicketRepo) ReplaceItems(ctx context.Context, id uuid.UUID, items []order.ItemSnapshot, total string) error {
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
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tickets, id)
	return nil
}
