package search

import (
	"go.uber.org/zap"

	"github.com/metadex-cloud/metadex/internal/domain/criteria"
	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/geometry"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
	"github.com/metadex-cloud/metadex/internal/domain/traverse"
)

// SpatialStage keeps records with at least one reachable spatial extent
// intersecting the query box. The query polygon is built once per request. A
// location whose stored WKT does not parse is logged and skipped; the record's
// remaining locations are still examined. A record with no parseable extent is
// excluded rather than failing the search.
func SpatialStage(bbox criteria.BoundingBox, log *zap.Logger) Stage {
	query := geometry.FromBBox(bbox)
	return Stage{
		Name: "bbox",
		Match: func(rec entity.Record, snap *snapshot.Snapshot) bool {
			for _, loc := range traverse.Locations(rec, snap) {
				if loc.WKT == "" {
					continue
				}
				g, err := geometry.Parse(loc.WKT)
				if err != nil {
					log.Warn("skipping malformed location geometry",
						zap.String("record", rec.InstanceID),
						zap.String("location", loc.InstanceID),
						zap.Error(err),
					)
					continue
				}
				if geometry.Intersects(query, g) {
					return true
				}
			}
			return false
		},
	}
}
