package billing

import (
	"sync"

	"github.com/google/uuid"
)

// SplitStore holds the in-flight splitter per ticket. Abandoning a split
// is simply dropping the entry; no external effect has happened until a
// settlement is built and consumed.
type SplitStore struct {
	splits map[uuid.UUID]*Splitter
	mu     sync.RWMutex
}

func NewSplitStore() *SplitStore {
	return &SplitStore{
		splits: make(map[uuid.UUID]*Splitter),
	}
}

func (s *SplitStore) Begin(ticketID uuid.UUID) *Splitter {
	s.mu.Lock()
	defer s.mu.Unlock()

	splitter := NewSplitter()
	s.splits[ticketID] = splitter
	return splitter
}

func (s *SplitStore) Get(ticketID uuid.UUID) (*Splitter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	splitter, ok := s.splits[ticketID]
	return splitter, ok
}

func (s *SplitStore) Discard(ticketID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.splits, ticketID)
}

func (s *SplitStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.splits)
}
