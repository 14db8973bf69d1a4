// Package prefetch resolves the reference closure of a set of root records in
// batches. Instead of touching the store once per linked entity, every hop
// issues a single bunch retrieval per entity kind, so the number of store
// round-trips is bounded by kinds times hops regardless of result size.
package prefetch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/metadex-cloud/metadex/internal/domain"
	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
	"github.com/metadex-cloud/metadex/internal/logger"
	"github.com/metadex-cloud/metadex/internal/metrics"
	"github.com/metadex-cloud/metadex/internal/store"
)

// Prefetcher builds request-scoped snapshots from the entity store.
type Prefetcher struct {
	store   store.EntityStore
	schema  entity.Schema
	maxHops int
}

// New creates a prefetcher walking the given relation schema up to maxHops
// hops away from the roots.
func New(s store.EntityStore, schema entity.Schema, maxHops int) *Prefetcher {
	if maxHops <= 0 {
		maxHops = 3
	}
	return &Prefetcher{store: s, schema: schema, maxHops: maxHops}
}

// Snapshot resolves everything reachable from the roots and freezes the
// result. A kind whose batch retrieval fails resolves to nothing for that
// hop; downstream code sees absent references, not errors. Only when every
// batch of the first hop fails is the store considered unavailable.
func (p *Prefetcher) Snapshot(ctx context.Context, roots []entity.Record) (*snapshot.Snapshot, error) {
	log := logger.FromContext(ctx)

	builder := snapshot.NewBuilder()
	for _, root := range roots {
		builder.Merge(root.Kind, []entity.Record{root})
	}
	frontier := p.collect(builder, roots)

	var (
		hops     int
		resolved int
	)
	for hop := 1; hop <= p.maxHops && len(frontier) > 0; hop++ {
		hops = hop
		added, failed, err := p.resolveHop(ctx, builder, frontier)
		if err != nil {
			return nil, err
		}
		if hop == 1 && failed == len(frontier) && failed > 0 {
			return nil, fmt.Errorf("%w: all %d first-hop batches failed", domain.ErrUpstreamUnavailable, failed)
		}
		resolved += len(added)
		frontier = p.collect(builder, added)
	}

	if len(frontier) > 0 {
		log.Debug("hop limit reached with unresolved references",
			zap.Int("max_hops", p.maxHops),
			zap.Int("pending_kinds", len(frontier)))
	}
	metrics.PrefetchHops.Observe(float64(hops))
	metrics.PrefetchRecordsResolved.Observe(float64(resolved))

	return builder.Freeze(), nil
}

// resolveHop fetches one frontier, one batch per kind in parallel, and merges
// the results. Returns the newly added records and the count of failed kinds.
func (p *Prefetcher) resolveHop(ctx context.Context, builder *snapshot.Builder, frontier map[entity.Kind][]string) ([]entity.Record, int, error) {
	log := logger.FromContext(ctx)

	var (
		mu     sync.Mutex
		added  []entity.Record
		failed int
	)

	g, gctx := errgroup.WithContext(ctx)
	for kind, ids := range frontier {
		kind, ids := kind, ids
		g.Go(func() error {
			records, err := p.store.RetrieveBunch(gctx, kind, ids)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				metrics.StoreBatchCallsTotal.WithLabelValues(string(kind), "error").Inc()
				log.Warn("batch retrieval failed, resolving kind as empty",
					zap.String("kind", string(kind)),
					zap.Int("ids", len(ids)),
					zap.Error(err))
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			metrics.StoreBatchCallsTotal.WithLabelValues(string(kind), "ok").Inc()

			merged := builder.Merge(kind, records)
			mu.Lock()
			added = append(added, merged...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return added, failed, nil
}

// collect gathers the outgoing references of the given records that are not
// yet resolved, grouped by target kind with deterministic id order.
func (p *Prefetcher) collect(builder *snapshot.Builder, records []entity.Record) map[entity.Kind][]string {
	pending := make(map[entity.Kind]map[string]struct{})
	for _, rec := range records {
		targets := p.schema.Targets(rec.Kind)
		for relation, targetKind := range targets {
			for _, ref := range rec.Refs(relation) {
				if ref.InstanceID == "" || builder.Has(targetKind, ref.InstanceID) {
					continue
				}
				set := pending[targetKind]
				if set == nil {
					set = make(map[string]struct{})
					pending[targetKind] = set
				}
				set[ref.InstanceID] = struct{}{}
			}
		}
	}

	out := make(map[entity.Kind][]string, len(pending))
	for kind, set := range pending {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out[kind] = ids
	}
	return out
}
