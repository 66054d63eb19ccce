package store

import (
	"context"
	"slices"
	"sync"

	"github.com/selectdimensions/react-flow-testbed/pkg/api"
)

// MemoryStore keeps snapshots in process memory. Useful for tests and
// throwaway servers
type MemoryStore struct {
	records map[api.FlowID]*Record
	clock   clock
	mu      sync.RWMutex
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: map[api.FlowID]*Record{},
	}
}

func (s *MemoryStore) Create(_ context.Context, data []byte) (*Record, error) {
	rec, err := newRecord(&s.clock, data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return rec.clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, id api.FlowID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	return rec.clone(), nil
}

func (s *MemoryStore) GetLatest(_ context.Context) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *Record
	for _, rec := range s.records {
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, notFound(api.LatestFlowID)
	}
	return latest.clone(), nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Record, error) {
	s.mu.RLock()
	res := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		res = append(res, rec.clone())
	}
	s.mu.RUnlock()

	sortNewestFirst(res)
	return res, nil
}

func (s *MemoryStore) Delete(_ context.Context, id api.FlowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return notFound(id)
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Backend() string {
	return BackendMemory
}

func (s *MemoryStore) Close() error {
	return nil
}

func (r *Record) clone() *Record {
	res := *r
	res.Data = slices.Clone(r.Data)
	return &res
}
