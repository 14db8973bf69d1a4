package plugins

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/metadex-cloud/metadex/internal/metrics"
)

// Syncer refreshes a Table on a fixed interval until its context is
// cancelled.
type Syncer struct {
	table    *Table
	source   Source
	interval time.Duration
	logger   *zap.Logger
}

// NewSyncer creates a background refresher for the table.
func NewSyncer(table *Table, source Source, interval time.Duration, logger *zap.Logger) *Syncer {
	return &Syncer{
		table:    table,
		source:   source,
		interval: interval,
		logger:   logger,
	}
}

// Run refreshes immediately, then on every tick, and returns when the context
// is cancelled. Failures are counted but never abort the loop; the table
// keeps serving its last good contents.
func (s *Syncer) Run(ctx context.Context) {
	if err := s.table.Refresh(ctx, s.source, s.logger); err != nil {
		metrics.PluginSyncErrorsTotal.Inc()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.table.Refresh(ctx, s.source, s.logger); err != nil {
				metrics.PluginSyncErrorsTotal.Inc()
			}
		}
	}
}
