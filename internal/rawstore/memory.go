package rawstore

import (
	"context"
	"sync"
)

// MemoryStore keeps raw table sets in process memory. Suitable for tests and
// ephemeral runs; contents are lost on Close.
type MemoryStore struct {
	mu    sync.RWMutex
	years map[int]*TableSet
}

// NewMemoryStore constructs an empty in-memory raw store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{years: make(map[int]*TableSet)}
}

func (s *MemoryStore) Driver() Driver { return DriverMemory }

func (s *MemoryStore) Has(ctx context.Context, year int) (bool, error) {
	s.mu.RLock()
	_, ok := s.years[year]
	s.mu.RUnlock()
	return ok, nil
}

func (s *MemoryStore) Load(ctx context.Context, year int) (*TableSet, error) {
	s.mu.RLock()
	set, ok := s.years[year]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrYearNotFound{Year: year}
	}
	return set, nil
}

func (s *MemoryStore) Save(ctx context.Context, set *TableSet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.years[set.Year] = set
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
