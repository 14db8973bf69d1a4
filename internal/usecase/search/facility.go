package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/metadex-cloud/metadex/internal/domain"
	"github.com/metadex-cloud/metadex/internal/domain/criteria"
	"github.com/metadex-cloud/metadex/internal/domain/discovery"
	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
	"github.com/metadex-cloud/metadex/internal/logger"
)

// FacilityItem is the external projection of a facility search hit.
type FacilityItem struct {
	ID          string   `json:"id"`
	UID         string   `json:"uid,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	SHA256ID    string   `json:"sha256id"`
	Categories  []string `json:"categories,omitempty"`
}

// FacilityResponse carries the facilities surviving the filter pipeline.
type FacilityResponse struct {
	Results []FacilityItem `json:"results"`
}

// FacilityTypeStage keeps facilities linked to any of the requested type
// categories. Clients send category instance ids here, unlike the
// name-keyed science domain filter.
func FacilityTypeStage(requested []string) Stage {
	want := nameSet(requested)
	return Stage{
		Name: "facilitytypes",
		Match: func(rec entity.Record, snap *snapshot.Snapshot) bool {
			for _, cat := range snap.Resolve(rec.Refs(entity.RelCategory)) {
				if _, ok := want[cat.InstanceID]; ok {
					return true
				}
			}
			return false
		},
	}
}

// SearchFacilities retrieves all facilities, resolves their reference
// closure, and narrows them through the fulltext, keyword, geospatial and
// facility-type stages. Equipment type filtering has no harvested data to
// match against, so the criterion passes every record and is logged.
func (s *Service) SearchFacilities(ctx context.Context, c criteria.Criteria) (FacilityResponse, error) {
	roots, err := s.store.RetrieveAll(ctx, entity.Facility)
	if err != nil {
		return FacilityResponse{}, fmt.Errorf("%w: retrieving facilities: %v", domain.ErrUpstreamUnavailable, err)
	}

	snap, err := s.prefetcher.Snapshot(ctx, roots)
	if err != nil {
		return FacilityResponse{}, err
	}

	matched := s.pipeline.Run(snap, roots, s.facilityStages(ctx, c))

	results := make([]FacilityItem, 0, len(matched))
	for _, fac := range matched {
		results = append(results, facilityItem(snap, fac))
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Title != results[j].Title {
			return results[i].Title < results[j].Title
		}
		return results[i].ID < results[j].ID
	})
	return FacilityResponse{Results: results}, nil
}

func (s *Service) facilityStages(ctx context.Context, c criteria.Criteria) []Stage {
	var stages []Stage
	if len(c.Query) > 0 {
		stages = append(stages, FullTextStage(c.Query))
	}
	if len(c.Keywords) > 0 {
		stages = append(stages, KeywordStage(c.Keywords))
	}
	if c.BBox != nil {
		stages = append(stages, SpatialStage(*c.BBox, logger.FromContext(ctx)))
	}
	if len(c.FacilityTypes) > 0 {
		stages = append(stages, FacilityTypeStage(c.FacilityTypes))
	}
	if len(c.EquipmentTypes) > 0 {
		logger.FromContext(ctx).Warn("equipment type filtering not implemented, criterion ignored",
			zap.Strings("equipmenttypes", c.EquipmentTypes))
	}
	return stages
}

func facilityItem(snap *snapshot.Snapshot, fac entity.Record) FacilityItem {
	var categories []string
	for _, cat := range snap.Resolve(fac.Refs(entity.RelCategory)) {
		if cat.UID != "" {
			categories = append(categories, cat.UID)
		}
	}
	return FacilityItem{
		ID:          fac.InstanceID,
		UID:         fac.UID,
		Title:       strings.Join(fac.Title, ";"),
		Description: strings.Join(fac.Description, ";"),
		SHA256ID:    discovery.CorrelationID(fac.UID),
		Categories:  categories,
	}
}
