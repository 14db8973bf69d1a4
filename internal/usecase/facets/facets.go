// Package facets aggregates the filter panels returned alongside search
// results: the pruned category tree, providers with their related
// organizations, and the flat keyword, science domain and service type lists.
package facets

import (
	"sort"
	"strings"

	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/facet"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
	"github.com/metadex-cloud/metadex/internal/domain/traverse"
	"github.com/metadex-cloud/metadex/internal/taxonomy"
)

// Aggregates is the facet payload of one search response.
type Aggregates struct {
	Categories     []*facet.Node    `json:"categories,omitempty"`
	Keywords       facet.FilterList `json:"keywords,omitzero"`
	Organisations  facet.FilterList `json:"organisations,omitzero"`
	ScienceDomains facet.FilterList `json:"scienceDomains,omitzero"`
	ServiceTypes   facet.FilterList `json:"serviceTypes,omitzero"`
}

// Narrow keeps only the requested facet group. An empty or unknown name
// returns the full set.
func (a *Aggregates) Narrow(facetsType string) *Aggregates {
	switch strings.ToLower(facetsType) {
	case "categories":
		return &Aggregates{Categories: a.Categories}
	case "keywords":
		return &Aggregates{Keywords: a.Keywords}
	case "organisations":
		return &Aggregates{Organisations: a.Organisations}
	case "sciencedomains":
		return &Aggregates{ScienceDomains: a.ScienceDomains}
	case "servicetypes":
		return &Aggregates{ServiceTypes: a.ServiceTypes}
	default:
		return a
	}
}

// Builder derives aggregates from the matched records.
type Builder struct {
	resolver *taxonomy.GroupResolver
}

// NewBuilder creates a facet builder using the group resolver for provider
// expansion.
func NewBuilder(resolver *taxonomy.GroupResolver) *Builder {
	return &Builder{resolver: resolver}
}

// Build computes every facet over the matched records. All lists are
// deterministic for a given snapshot and match set.
func (b *Builder) Build(snap *snapshot.Snapshot, matched []entity.Record) *Aggregates {
	return &Aggregates{
		Categories:     b.categoryTree(snap, matched),
		Keywords:       b.keywords(matched),
		Organisations:  b.organisations(snap, matched),
		ScienceDomains: b.scienceDomains(snap, matched),
		ServiceTypes:   b.serviceTypes(snap, matched),
	}
}

// categoryTree prunes the full category hierarchy down to the branches the
// matched records actually link to.
func (b *Builder) categoryTree(snap *snapshot.Snapshot, matched []entity.Record) []*facet.Node {
	hit := map[string]struct{}{}
	for _, rec := range matched {
		for _, ref := range rec.Refs(entity.RelCategory) {
			hit[ref.InstanceID] = struct{}{}
		}
	}
	return taxonomy.BuildTree(snap).Pruned(hit)
}

func (b *Builder) keywords(matched []entity.Record) facet.FilterList {
	var children []facet.FilterNode
	for _, rec := range matched {
		for kw := range rec.KeywordSet() {
			children = append(children, facet.FilterNode{Name: kw, ID: facet.KeywordID(kw)})
		}
	}
	return facet.NewList("keywords", children)
}

// organisations lists the direct providers of the matched records. Each entry
// carries the rest of its provider group as children so clients can offer
// umbrella-level selection.
func (b *Builder) organisations(snap *snapshot.Snapshot, matched []entity.Record) facet.FilterList {
	direct := map[string]struct{}{}
	for _, rec := range matched {
		for _, orgID := range traverse.ProviderOrgIDs(rec, snap) {
			direct[orgID] = struct{}{}
		}
	}

	var children []facet.FilterNode
	for orgID := range direct {
		org, ok := snap.Get(entity.Organization, orgID)
		if !ok {
			continue
		}
		node := facet.FilterNode{Name: orgLabel(org), ID: org.InstanceID}
		for _, relatedID := range b.resolver.Expand(snap, orgID) {
			if relatedID == orgID {
				continue
			}
			related, ok := snap.Get(entity.Organization, relatedID)
			if !ok {
				continue
			}
			node.Children = append(node.Children, facet.FilterNode{
				Name: orgLabel(related),
				ID:   related.InstanceID,
			})
		}
		sortFilterNodes(node.Children)
		children = append(children, node)
	}
	return facet.NewList("organisations", children)
}

func (b *Builder) scienceDomains(snap *snapshot.Snapshot, matched []entity.Record) facet.FilterList {
	var children []facet.FilterNode
	for _, rec := range matched {
		for _, cat := range snap.Resolve(rec.Refs(entity.RelCategory)) {
			children = append(children, facet.FilterNode{Name: cat.Name, ID: cat.InstanceID})
		}
	}
	return facet.NewList("scienceDomains", children)
}

func (b *Builder) serviceTypes(snap *snapshot.Snapshot, matched []entity.Record) facet.FilterList {
	var children []facet.FilterNode
	for _, rec := range matched {
		for _, ws := range traverse.WebServices(rec, snap) {
			for _, cat := range snap.Resolve(ws.Refs(entity.RelCategory)) {
				children = append(children, facet.FilterNode{Name: cat.Name, ID: cat.InstanceID})
			}
		}
	}
	return facet.NewList("serviceTypes", children)
}

func sortFilterNodes(nodes []facet.FilterNode) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].ID < nodes[j].ID
	})
}

func orgLabel(org entity.Record) string {
	if len(org.LegalName) > 0 {
		return org.LegalName[0]
	}
	return org.UID
}
