// Package plugins maintains the conversion table consulted while assembling
// available formats: which converter plugins accept a distribution's native
// payload and what they emit. The table is refreshed in the background and
// read under a shared lock on the request path.
package plugins

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/store"
)

// Relation is one conversion a plugin offers for a distribution.
type Relation struct {
	PluginID     string
	InputFormat  string
	OutputFormat string
}

// Source delivers the full conversion table.
type Source interface {
	Fetch(ctx context.Context) (map[string][]Relation, error)
}

// StoreSource reads plugin records from the entity store. Each record carries
// the accepted input format, the emitted output formats and references to the
// distributions it applies to.
type StoreSource struct {
	store store.EntityStore
}

// NewStoreSource creates a store-backed source.
func NewStoreSource(s store.EntityStore) *StoreSource {
	return &StoreSource{store: s}
}

// Fetch rebuilds the distribution-to-conversions map from all plugin records.
func (s *StoreSource) Fetch(ctx context.Context) (map[string][]Relation, error) {
	records, err := s.store.RetrieveAll(ctx, entity.Plugin)
	if err != nil {
		return nil, err
	}

	table := make(map[string][]Relation)
	for _, rec := range records {
		for _, distRef := range rec.Refs(entity.RelDistribution) {
			for _, output := range rec.Returns {
				table[distRef.InstanceID] = append(table[distRef.InstanceID], Relation{
					PluginID:     rec.InstanceID,
					InputFormat:  rec.Format,
					OutputFormat: output,
				})
			}
		}
	}
	return table, nil
}

// Table is the process-wide conversion table. Refreshes swap the whole map so
// readers never observe a partial update.
type Table struct {
	mu        sync.RWMutex
	relations map[string][]Relation
	errCount  int
	maxErrors int
}

// NewTable creates an empty table that tolerates maxErrors consecutive
// refresh failures before reporting unhealthy.
func NewTable(maxErrors int) *Table {
	return &Table{
		relations: map[string][]Relation{},
		maxErrors: maxErrors,
	}
}

// Relations returns the conversions registered for a distribution.
func (t *Table) Relations(distributionID string) []Relation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.relations[distributionID]
}

// Len returns the number of distributions with registered conversions.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.relations)
}

// Swap replaces the table contents and resets the failure counter.
func (t *Table) Swap(relations map[string][]Relation) {
	if relations == nil {
		relations = map[string][]Relation{}
	}
	t.mu.Lock()
	t.relations = relations
	t.errCount = 0
	t.mu.Unlock()
}

// RecordFailure counts one failed refresh.
func (t *Table) RecordFailure() {
	t.mu.Lock()
	t.errCount++
	t.mu.Unlock()
}

// Healthy reports whether refreshes have not failed past the threshold.
func (t *Table) Healthy() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.errCount < t.maxErrors
}

// Refresh fetches the table once and swaps it in. A fetch error leaves the
// previous contents serving reads.
func (t *Table) Refresh(ctx context.Context, src Source, logger *zap.Logger) error {
	relations, err := src.Fetch(ctx)
	if err != nil {
		t.RecordFailure()
		logger.Warn("plugin table refresh failed", zap.Error(err))
		return err
	}
	t.Swap(relations)
	logger.Debug("plugin table refreshed", zap.Int("distributions", len(relations)))
	return nil
}
