package taxonomy

import (
	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
)

// GroupResolver expands an organization id into its provider group: the
// organization itself, the umbrella organizations it belongs to, and every
// sibling member of those umbrellas. Provider filters and facets match on the
// expanded set so selecting an umbrella selects all its members and vice
// versa.
type GroupResolver struct{}

// NewGroupResolver creates a resolver.
func NewGroupResolver() *GroupResolver {
	return &GroupResolver{}
}

// Expand returns the group ids for an organization, always including the id
// itself. Unknown ids expand to just themselves.
func (g *GroupResolver) Expand(snap *snapshot.Snapshot, orgID string) []string {
	set := map[string]struct{}{orgID: {}}

	org, ok := snap.Get(entity.Organization, orgID)
	if ok {
		for _, parentRef := range org.Refs(entity.RelMemberOf) {
			set[parentRef.InstanceID] = struct{}{}
			parent, ok := snap.Get(entity.Organization, parentRef.InstanceID)
			if !ok {
				continue
			}
			for _, sibling := range parent.Refs(entity.RelMember) {
				set[sibling.InstanceID] = struct{}{}
			}
		}
		// An umbrella organization expands to its members too.
		for _, member := range org.Refs(entity.RelMember) {
			set[member.InstanceID] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// ExpandSet expands several organization ids into one membership set.
func (g *GroupResolver) ExpandSet(snap *snapshot.Snapshot, orgIDs []string) map[string]struct{} {
	set := make(map[string]struct{}, len(orgIDs))
	for _, id := range orgIDs {
		for _, expanded := range g.Expand(snap, id) {
			set[expanded] = struct{}{}
		}
	}
	return set
}
