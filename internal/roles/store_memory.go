package roles

import (
	"context"
	"sync"

	"github.com/fbn1986/gerenciador-de-contratos/pkg/platform/sentinel"
)

// InMemoryStore keeps role records in a map.
type InMemoryStore struct {
	mu           sync.RWMutex
	records      map[string]Record
	bootstrapped bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Record)}
}

func (s *InMemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *InMemoryStore) Get(_ context.Context, uid string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[uid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	r := record
	return &r, nil
}

func (s *InMemoryStore) Put(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.UID] = record
	return nil
}

func (s *InMemoryStore) SetBootstrapComplete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bootstrapped = true
	return nil
}

func (s *InMemoryStore) BootstrapComplete(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bootstrapped, nil
}
