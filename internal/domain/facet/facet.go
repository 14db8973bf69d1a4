// Package facet defines the aggregate structures returned next to search
// results: the category tree and the flat filter lists.
package facet

import (
	"encoding/base64"
	"sort"
)

// Node is one branch of the category facet tree.
type Node struct {
	Name     string  `json:"name,omitempty"`
	ID       string  `json:"id,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// AddChild appends a child branch.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}

// SortChildren orders the whole subtree lexically by name so tree shape never
// depends on input iteration order.
func (n *Node) SortChildren() {
	sort.Slice(n.Children, func(i, j int) bool { return n.Children[i].Name < n.Children[j].Name })
	for _, c := range n.Children {
		c.SortChildren()
	}
}

// Prune returns a copy of the subtree keeping only branches whose descendants
// include at least one of the given category ids. Returns nil when nothing
// under this node matches.
func (n *Node) Prune(matched map[string]struct{}) *Node {
	var kept []*Node
	for _, c := range n.Children {
		if pc := c.Prune(matched); pc != nil {
			kept = append(kept, pc)
		}
	}
	_, hit := matched[n.ID]
	if !hit && len(kept) == 0 {
		return nil
	}
	return &Node{Name: n.Name, ID: n.ID, Children: kept}
}

// FilterNode is one entry of a flat filter list (keywords, organisations,
// science domains, service types).
type FilterNode struct {
	Name     string       `json:"name"`
	ID       string       `json:"id,omitempty"`
	Children []FilterNode `json:"children,omitempty"`
}

// FilterList is a named flat filter facet.
type FilterList struct {
	Name     string       `json:"name"`
	Children []FilterNode `json:"children"`
}

// NewList creates a deterministic filter list: children deduplicated by id
// (falling back to name) and sorted by name, ties broken by id.
func NewList(name string, children []FilterNode) FilterList {
	seen := make(map[string]struct{}, len(children))
	out := make([]FilterNode, 0, len(children))
	for _, c := range children {
		key := c.ID
		if key == "" {
			key = c.Name
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return FilterList{Name: name, Children: out}
}

// KeywordID derives the stable opaque id of a keyword facet entry.
func KeywordID(keyword string) string {
	return base64.StdEncoding.EncodeToString([]byte(keyword))
}
