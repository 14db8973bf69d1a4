package search

import (
	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
	"github.com/metadex-cloud/metadex/internal/domain/traverse"
	"github.com/metadex-cloud/metadex/internal/taxonomy"
)

// OrganizationStage keeps records provided by any of the requested
// organizations. The requested ids are expanded through the group resolver
// first, so selecting an umbrella organization matches everything its members
// provide.
func OrganizationStage(snap *snapshot.Snapshot, resolver *taxonomy.GroupResolver, requested []string) Stage {
	want := resolver.ExpandSet(snap, requested)
	return Stage{
		Name: "organisations",
		Match: func(rec entity.Record, snap *snapshot.Snapshot) bool {
			for _, orgID := range traverse.ProviderOrgIDs(rec, snap) {
				if _, ok := want[orgID]; ok {
					return true
				}
			}
			return false
		},
	}
}
