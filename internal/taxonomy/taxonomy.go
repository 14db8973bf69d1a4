// Package taxonomy derives navigation structures from catalog records:
// the category tree used for domain facets and the organization group
// expansion used by provider filtering.
package taxonomy

import (
	"sort"

	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/facet"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
)

// Tree is the category hierarchy assembled from category records and their
// narrower/broader relations.
type Tree struct {
	roots    []*facet.Node
	byID     map[string]*facet.Node
	nameByID map[string]string
}

// BuildTree assembles the category tree from all category records in the
// snapshot. Roots are categories with no broader parent. Children are sorted
// by name for stable output.
func BuildTree(snap *snapshot.Snapshot) *Tree {
	cats := snap.Kind(entity.Category)

	t := &Tree{
		byID:     make(map[string]*facet.Node, len(cats)),
		nameByID: make(map[string]string, len(cats)),
	}
	for id, rec := range cats {
		t.byID[id] = &facet.Node{Name: rec.Name, ID: id}
		t.nameByID[id] = rec.Name
	}

	// A pair declared with both narrower and broader must still yield one
	// edge, so links are deduplicated per parent/child pair.
	linked := make(map[[2]string]bool)
	link := func(parent, child *facet.Node) {
		key := [2]string{parent.ID, child.ID}
		if linked[key] {
			return
		}
		linked[key] = true
		parent.AddChild(child)
	}

	hasParent := make(map[string]bool, len(cats))
	for id, rec := range cats {
		node := t.byID[id]
		for _, ref := range rec.Refs(entity.RelNarrower) {
			child, ok := t.byID[ref.InstanceID]
			if !ok {
				continue
			}
			link(node, child)
			hasParent[ref.InstanceID] = true
		}
		for _, ref := range rec.Refs(entity.RelBroader) {
			hasParent[id] = true
			if parent, ok := t.byID[ref.InstanceID]; ok {
				link(parent, node)
			}
		}
	}

	for id, node := range t.byID {
		node.SortChildren()
		if !hasParent[id] {
			t.roots = append(t.roots, node)
		}
	}
	sort.Slice(t.roots, func(i, j int) bool {
		if t.roots[i].Name != t.roots[j].Name {
			return t.roots[i].Name < t.roots[j].Name
		}
		return t.roots[i].ID < t.roots[j].ID
	})
	return t
}

// Roots returns the top-level categories.
func (t *Tree) Roots() []*facet.Node {
	return t.roots
}

// Name returns the display name of a category, or "" if unknown.
func (t *Tree) Name(id string) string {
	return t.nameByID[id]
}

// Pruned returns a copy of the tree keeping only branches that contain at
// least one matched category.
func (t *Tree) Pruned(matched map[string]struct{}) []*facet.Node {
	var kept []*facet.Node
	for _, root := range t.roots {
		if p := root.Prune(matched); p != nil {
			kept = append(kept, p)
		}
	}
	return kept
}
