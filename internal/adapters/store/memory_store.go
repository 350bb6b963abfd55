package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/mikey/app-tracker/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of the RecordStore interface
type MemoryStore struct {
	records map[core.RecordKey]*core.ApplicationRecord
	order   []core.RecordKey
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		records: make(map[core.RecordKey]*core.ApplicationRecord),
		logger:  logger,
	}
}

// Find returns a copy of the record matching key
func (s *MemoryStore) Find(ctx context.Context, key core.RecordKey) (*core.ApplicationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key.Normalized()]
	if !ok {
		return nil, core.ErrRecordNotFound
	}

	cp := *rec
	return &cp, nil
}

// Create stores a new record
func (s *MemoryStore) Create(ctx context.Context, rec *core.ApplicationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := rec.Key().Normalized()
	if _, exists := s.records[k]; exists {
		return fmt.Errorf("record %s/%s already exists", rec.Company, rec.Role)
	}

	cp := *rec
	s.records[k] = &cp
	s.order = append(s.order, k)
	return nil
}

// Update applies upd to the record matching key
func (s *MemoryStore) Update(ctx context.Context, key core.RecordKey, upd core.RecordUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.Normalized()
	rec, ok := s.records[k]
	if !ok {
		return core.ErrRecordNotFound
	}

	updated := *rec
	upd.Apply(&updated)

	// A refinement may change the identity of the record
	if nk := updated.Key().Normalized(); nk != k {
		if _, clash := s.records[nk]; clash {
			return fmt.Errorf("record %s/%s already exists", updated.Company, updated.Role)
		}
		delete(s.records, k)
		for i := range s.order {
			if s.order[i] == k {
				s.order[i] = nk
			}
		}
		k = nk
	}

	s.records[k] = &updated
	return nil
}

// List returns copies of all records in insertion order
func (s *MemoryStore) List(ctx context.Context) ([]*core.ApplicationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.ApplicationRecord, 0, len(s.order))
	for _, k := range s.order {
		cp := *s.records[k]
		out = append(out, &cp)
	}
	return out, nil
}

// Clear removes every record
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.records)
	s.records = make(map[core.RecordKey]*core.ApplicationRecord)
	s.order = nil

	s.logger.Debug("Cleared memory store", zap.Int("removed", count))
	return nil
}
