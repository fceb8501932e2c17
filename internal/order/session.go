package order

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TicketSession is one open ticket being edited: the persisted document it
// belongs to plus the in-memory aggregate taking mutations. One session per
// ticket, one editor per session; conflict arbitration between terminals is
// a host concern, not this store's.
type TicketSession struct {
	TicketID  uuid.UUID
	TableID   uuid.UUID
	Order     *Order
	Takeaway  bool
	StartedAt time.Time
	ExpiresAt time.Time
}

var ErrSessionNotFound = errors.New("ticket session not found")

type TicketSessionStore struct {
	sessions map[uuid.UUID]*TicketSession
	mu       sync.RWMutex
	ttl      time.Duration
}

func NewTicketSessionStore(ttl time.Duration) *TicketSessionStore {
	store := &TicketSessionStore{
		sessions: make(map[uuid.UUID]*TicketSession),
		ttl:      ttl,
	}

	// Start cleanup goroutine
	go store.cleanup()

	return store
}

func (s *TicketSessionStore) Open(ticketID, tableID uuid.UUID, ord *Order) *TicketSession {
	if ord == nil {
		ord = NewOrder()
	}
	now := time.Now()
	session := &TicketSession{
		TicketID:  ticketID,
		TableID:   tableID,
		Order:     ord,
		StartedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[ticketID] = session
	return session
}

// Get returns the session for a ticket and pushes its expiry forward; an
// actively edited ticket never expires mid-mutation.
func (s *TicketSessionStore) Get(ticketID uuid.UUID) (*TicketSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[ticketID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	if time.Now().After(session.ExpiresAt) {
		delete(s.sessions, ticketID)
		return nil, ErrSessionNotFound
	}

	session.ExpiresAt = time.Now().Add(s.ttl)
	return session, nil
}

func (s *TicketSessionStore) Discard(ticketID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, ticketID)
}

func (s *TicketSessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *TicketSessionStore) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		now := time.Now()
		for id, session := range s.sessions {
			if now.After(session.ExpiresAt) {
				delete(s.sessions, id)
			}
		}
		s.mu.Unlock()
	}
}
