package search

import (
	"time"

	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
)

// TemporalStage keeps records whose temporal extent overlaps the requested
// range. An extent matches unless it ends before the requested start or
// begins after the requested end; open extent bounds never disqualify.
// Records without any temporal extent are excluded once a bound is given.
func TemporalStage(start, end *time.Time) Stage {
	return Stage{
		Name: "daterange",
		Match: func(rec entity.Record, snap *snapshot.Snapshot) bool {
			extents := snap.Resolve(rec.Refs(entity.RelTemporalExtent))
			for _, ext := range extents {
				if overlaps(ext.StartDate, ext.EndDate, start, end) {
					return true
				}
			}
			return false
		},
	}
}

func overlaps(extStart, extEnd, reqStart, reqEnd *time.Time) bool {
	if extEnd != nil && reqStart != nil && extEnd.Before(*reqStart) {
		return false
	}
	if extStart != nil && reqEnd != nil && extStart.After(*reqEnd) {
		return false
	}
	return true
}
