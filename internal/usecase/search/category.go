package search

import (
	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
	"github.com/metadex-cloud/metadex/internal/domain/traverse"
)

// ScienceDomainStage keeps records linked to any of the requested science
// domain categories. Matching is by category name, the key the clients send.
func ScienceDomainStage(requested []string) Stage {
	want := nameSet(requested)
	return Stage{
		Name: "sciencedomains",
		Match: func(rec entity.Record, snap *snapshot.Snapshot) bool {
			for _, cat := range snap.Resolve(rec.Refs(entity.RelCategory)) {
				if _, ok := want[cat.Name]; ok {
					return true
				}
			}
			return false
		},
	}
}

// ServiceTypeStage keeps records whose webservices carry any of the requested
// service type categories, matched by name like the science domains.
func ServiceTypeStage(requested []string) Stage {
	want := nameSet(requested)
	return Stage{
		Name: "servicetypes",
		Match: func(rec entity.Record, snap *snapshot.Snapshot) bool {
			for _, ws := range traverse.WebServices(rec, snap) {
				for _, cat := range snap.Resolve(ws.Refs(entity.RelCategory)) {
					if _, ok := want[cat.Name]; ok {
						return true
					}
				}
			}
			return false
		},
	}
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
