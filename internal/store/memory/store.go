// Package memory implements the entity store in process memory, for tests and
// local runs without a backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/store"
)

// Compile-time check: Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store keeps records per kind in memory.
type Store struct {
	mu      sync.RWMutex
	records map[entity.Kind]map[string]entity.Record
}

// NewStore creates an empty in-memory entity store.
func NewStore() *Store {
	return &Store{records: make(map[entity.Kind]map[string]entity.Record)}
}

// Seed loads records in bulk, replacing existing ids.
func (s *Store) Seed(records ...entity.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		byID := s.records[r.Kind]
		if byID == nil {
			byID = make(map[string]entity.Record)
			s.records[r.Kind] = byID
		}
		byID[r.InstanceID] = r
	}
}

// Retrieve fetches a single record.
func (s *Store) Retrieve(_ context.Context, kind entity.Kind, id string) (entity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[kind][id]
	if !ok {
		return entity.Record{}, store.ErrKeyNotFound
	}
	return r, nil
}

// RetrieveBunch fetches many records, silently skipping missing ids.
func (s *Store) RetrieveBunch(_ context.Context, kind entity.Kind, ids []string) ([]entity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.records[kind][id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// RetrieveAll returns every record of a kind, ordered by instance id.
func (s *Store) RetrieveAll(_ context.Context, kind entity.Kind) ([]entity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Record, 0, len(s.records[kind]))
	for _, r := range s.records[kind] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstanceID < out[j].InstanceID })
	return out, nil
}

// Put stores one record.
func (s *Store) Put(_ context.Context, record entity.Record) error {
	s.Seed(record)
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }
