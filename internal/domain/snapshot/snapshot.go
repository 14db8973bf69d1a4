// Package snapshot holds the request-scoped result of batch-resolving linked
// entities. A snapshot is frozen before filtering starts; every later read is
// lock-free and an absent reference resolves to "not found", never to a store
// call.
package snapshot

import (
	"sync"

	"github.com/metadex-cloud/metadex/internal/domain/entity"
)

// Snapshot is an immutable map from (kind, instance id) to resolved record.
type Snapshot struct {
	records map[entity.Kind]map[string]entity.Record
}

// Get resolves a single id.
func (s *Snapshot) Get(kind entity.Kind, id string) (entity.Record, bool) {
	if s == nil {
		return entity.Record{}, false
	}
	r, ok := s.records[kind][id]
	return r, ok
}

// Resolve maps references to resolved records, skipping ids absent from the
// snapshot. Order of the input references is preserved.
func (s *Snapshot) Resolve(refs []entity.Reference) []entity.Record {
	if len(refs) == 0 {
		return nil
	}
	out := make([]entity.Record, 0, len(refs))
	for _, ref := range refs {
		if r, ok := s.Get(ref.Kind, ref.InstanceID); ok {
			out = append(out, r)
		}
	}
	return out
}

// Kind returns all resolved records of a kind, keyed by instance id. The
// returned map must be treated as read-only.
func (s *Snapshot) Kind(kind entity.Kind) map[string]entity.Record {
	if s == nil {
		return nil
	}
	return s.records[kind]
}

// Count returns the number of resolved records of a kind.
func (s *Snapshot) Count(kind entity.Kind) int {
	if s == nil {
		return 0
	}
	return len(s.records[kind])
}

// Builder accumulates records concurrently and freezes into a Snapshot.
type Builder struct {
	mu      sync.Mutex
	records map[entity.Kind]map[string]entity.Record
}

// NewBuilder creates an empty snapshot builder.
func NewBuilder() *Builder {
	return &Builder{records: make(map[entity.Kind]map[string]entity.Record)}
}

// Merge adds records of one kind and returns those not seen before. Re-adding
// an existing id is a no-op, which makes the merge idempotent.
func (b *Builder) Merge(kind entity.Kind, records []entity.Record) []entity.Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	byID := b.records[kind]
	if byID == nil {
		byID = make(map[string]entity.Record, len(records))
		b.records[kind] = byID
	}

	var added []entity.Record
	for _, r := range records {
		if r.InstanceID == "" {
			continue
		}
		if _, ok := byID[r.InstanceID]; ok {
			continue
		}
		byID[r.InstanceID] = r
		added = append(added, r)
	}
	return added
}

// Has reports whether an id is already resolved.
func (b *Builder) Has(kind entity.Kind, id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.records[kind][id]
	return ok
}

// Freeze hands the accumulated records over to an immutable Snapshot. The
// builder must not be used afterwards.
func (b *Builder) Freeze() *Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &Snapshot{records: b.records}
	b.records = nil
	return s
}
