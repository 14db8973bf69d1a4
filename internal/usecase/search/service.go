package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/metadex-cloud/metadex/internal/domain"
	"github.com/metadex-cloud/metadex/internal/domain/criteria"
	"github.com/metadex-cloud/metadex/internal/domain/discovery"
	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
	"github.com/metadex-cloud/metadex/internal/logger"
	"github.com/metadex-cloud/metadex/internal/store"
	"github.com/metadex-cloud/metadex/internal/taxonomy"
	"github.com/metadex-cloud/metadex/internal/usecase/assemble"
	"github.com/metadex-cloud/metadex/internal/usecase/facets"
)

const statusPublished = "published"

// Prefetcher resolves root records into a frozen snapshot.
type Prefetcher interface {
	Snapshot(ctx context.Context, roots []entity.Record) (*snapshot.Snapshot, error)
}

// Service runs catalog searches: candidate retrieval, reference prefetch,
// filter pipeline, then facet aggregation and item assembly.
type Service struct {
	store      store.EntityStore
	prefetcher Prefetcher
	pipeline   *Pipeline
	resolver   *taxonomy.GroupResolver
	assembler  *assemble.Assembler
	facets     *facets.Builder
}

// NewService wires the search use case.
func NewService(
	st store.EntityStore,
	prefetcher Prefetcher,
	pipeline *Pipeline,
	resolver *taxonomy.GroupResolver,
	assembler *assemble.Assembler,
	facetsBuilder *facets.Builder,
) *Service {
	return &Service{
		store:      st,
		prefetcher: prefetcher,
		pipeline:   pipeline,
		resolver:   resolver,
		assembler:  assembler,
		facets:     facetsBuilder,
	}
}

// Request is one search invocation.
type Request struct {
	Criteria criteria.Criteria
	// Privileged callers may request versioned (unpublished) records and
	// receive editorial fields.
	Privileged bool
}

// Response carries the assembled results and, when requested, the facets.
type Response struct {
	Results []discovery.Item   `json:"results"`
	Facets  *facets.Aggregates `json:"facets,omitempty"`
}

// Search retrieves all dataproducts, resolves their reference closure, and
// narrows them through the filter stages derived from the criteria.
func (s *Service) Search(ctx context.Context, req Request) (Response, error) {
	roots, err := s.store.RetrieveAll(ctx, entity.DataProduct)
	if err != nil {
		return Response{}, fmt.Errorf("%w: retrieving dataproducts: %v", domain.ErrUpstreamUnavailable, err)
	}
	roots = filterByStatus(roots, req)

	snap, err := s.prefetcher.Snapshot(ctx, roots)
	if err != nil {
		return Response{}, err
	}

	matched := s.pipeline.Run(snap, roots, s.stages(ctx, req.Criteria, snap))

	backoffice := req.Privileged && len(req.Criteria.VersioningStatus) > 0
	resp := Response{
		Results: s.assembler.Items(snap, matched, assemble.Options{Backoffice: backoffice}),
	}
	if req.Criteria.Facets {
		resp.Facets = s.facets.Build(snap, matched).Narrow(req.Criteria.FacetsType)
	}
	return resp, nil
}

// Details resolves a single distribution into a discovery item. Without
// extended the format list is omitted.
func (s *Service) Details(ctx context.Context, id string, extended, privileged bool) (discovery.Item, error) {
	dist, err := s.store.Retrieve(ctx, entity.Distribution, id)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return discovery.Item{}, fmt.Errorf("%w: distribution %q", domain.ErrNotFound, id)
		}
		return discovery.Item{}, fmt.Errorf("%w: retrieving distribution %q: %v", domain.ErrUpstreamUnavailable, id, err)
	}

	roots := []entity.Record{dist}
	product := entity.Record{Kind: entity.DataProduct}
	if ref, ok := dist.FirstRef(entity.RelDataProduct); ok {
		if p, err := s.store.Retrieve(ctx, entity.DataProduct, ref.InstanceID); err == nil {
			product = p
			roots = append(roots, p)
		}
	}

	snap, err := s.prefetcher.Snapshot(ctx, roots)
	if err != nil {
		return discovery.Item{}, err
	}

	opts := assemble.Options{Backoffice: privileged, SkipFormats: !extended}
	return s.assembler.Item(snap, product, dist, opts), nil
}

// stages derives the active pipeline from the criteria. Empty criteria mean
// an empty pipeline: every published record matches.
func (s *Service) stages(ctx context.Context, c criteria.Criteria, snap *snapshot.Snapshot) []Stage {
	var stages []Stage
	if len(c.Query) > 0 {
		stages = append(stages, FullTextStage(c.Query))
	}
	if len(c.Keywords) > 0 {
		stages = append(stages, KeywordStage(c.Keywords))
	}
	if len(c.Organisations) > 0 {
		stages = append(stages, OrganizationStage(snap, s.resolver, c.Organisations))
	}
	if c.BBox != nil {
		stages = append(stages, SpatialStage(*c.BBox, logger.FromContext(ctx)))
	}
	if c.HasDateRange() {
		stages = append(stages, TemporalStage(c.StartDate, c.EndDate))
	}
	if len(c.ScienceDomains) > 0 {
		stages = append(stages, ScienceDomainStage(c.ScienceDomains))
	}
	if len(c.ServiceTypes) > 0 {
		stages = append(stages, ServiceTypeStage(c.ServiceTypes))
	}
	return stages
}

// filterByStatus keeps published records, or the requested versioning
// statuses for privileged callers. Records without a status are treated as
// published.
func filterByStatus(records []entity.Record, req Request) []entity.Record {
	out := records[:0:0]
	if req.Privileged && len(req.Criteria.VersioningStatus) > 0 {
		want := make(map[string]struct{}, len(req.Criteria.VersioningStatus))
		for _, status := range req.Criteria.VersioningStatus {
			want[strings.ToLower(status)] = struct{}{}
		}
		for _, rec := range records {
			if _, ok := want[strings.ToLower(rec.Status)]; ok {
				out = append(out, rec)
			}
		}
		return out
	}
	for _, rec := range records {
		if rec.Status == "" || strings.EqualFold(rec.Status, statusPublished) {
			out = append(out, rec)
		}
	}
	return out
}
