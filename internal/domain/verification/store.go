package verification

import (
	"context"
	"sync"
)

// MemoryStore keeps results in process. Get returns the stored pointer, so
// repeated reads of a fresh entry yield the identical result.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]*Result
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]*Result)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	return r, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, r *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.VaccineID] = r
	return nil
}
