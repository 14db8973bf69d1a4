// Package assemble projects matched dataproducts into the discovery items
// returned by the search and details endpoints.
package assemble

import (
	"sort"
	"strings"

	"github.com/metadex-cloud/metadex/internal/domain/discovery"
	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
	"github.com/metadex-cloud/metadex/internal/domain/traverse"
)

// Options control per-request projection behavior.
type Options struct {
	// Backoffice includes editorial fields for privileged callers asking for
	// versioned results.
	Backoffice bool
	// SkipFormats leaves the available-format list out, skipping plugin-table
	// and operation resolution entirely.
	SkipFormats bool
}

// Assembler builds discovery items from resolved records.
type Assembler struct {
	detailsURL string
	formats    *FormatsGenerator
}

// NewAssembler creates an assembler. detailsURL is the absolute prefix of the
// details endpoint, without a trailing slash.
func NewAssembler(detailsURL string, formats *FormatsGenerator) *Assembler {
	return &Assembler{detailsURL: strings.TrimSuffix(detailsURL, "/"), formats: formats}
}

// Items projects every distribution of every matched dataproduct, ordered by
// item title then id for stable output.
func (a *Assembler) Items(snap *snapshot.Snapshot, products []entity.Record, opts Options) []discovery.Item {
	var out []discovery.Item
	for _, product := range products {
		for _, dist := range traverse.Distributions(product, snap) {
			out = append(out, a.Item(snap, product, dist, opts))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Item projects one distribution of a dataproduct.
func (a *Assembler) Item(snap *snapshot.Snapshot, product, dist entity.Record, opts Options) discovery.Item {
	href := a.detailsURL + "/" + dist.InstanceID

	item := discovery.Item{
		ID:               dist.InstanceID,
		UID:              dist.UID,
		MetaID:           dist.MetaID,
		Title:            strings.Join(dist.Title, ";"),
		Description:      strings.Join(dist.Description, ";"),
		SHA256ID:         discovery.CorrelationID(dist.UID),
		Href:             href,
		HrefExtended:     href + "?extended=true",
		DataProviders:    legalNames(snap.Resolve(product.Refs(entity.RelPublisher))),
		ServiceProviders: a.serviceProviders(snap, dist),
		Categories:       categoryUIDs(product, snap),
	}
	if !opts.SkipFormats {
		item.AvailableFormats = a.formats.Generate(snap, dist)
	}

	if opts.Backoffice {
		item.EditorID = product.EditorID
		item.VersioningStatus = product.Status
		item.ChangeDate = product.ChangeTimestamp
		if editor, ok := snap.Get(entity.Organization, product.EditorID); ok {
			item.EditorFullName = orgLabel(editor)
		}
	}
	return item
}

// serviceProviders lists the legal names of the providers behind the
// distribution's webservices.
func (a *Assembler) serviceProviders(snap *snapshot.Snapshot, dist entity.Record) []string {
	var orgs []entity.Record
	for _, ws := range snap.Resolve(dist.Refs(entity.RelAccessService)) {
		orgs = append(orgs, snap.Resolve(ws.Refs(entity.RelProvider))...)
	}
	return legalNames(orgs)
}

// categoryUIDs returns the product's category identifiers, keeping only real
// taxonomy entries.
func categoryUIDs(product entity.Record, snap *snapshot.Snapshot) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, cat := range snap.Resolve(product.Refs(entity.RelCategory)) {
		if !strings.Contains(cat.UID, "category:") {
			continue
		}
		if _, ok := seen[cat.UID]; ok {
			continue
		}
		seen[cat.UID] = struct{}{}
		out = append(out, cat.UID)
	}
	sort.Strings(out)
	return out
}

// legalNames collects distinct legal names in sorted order.
func legalNames(orgs []entity.Record) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, org := range orgs {
		name := orgLabel(org)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func orgLabel(org entity.Record) string {
	if len(org.LegalName) > 0 {
		return org.LegalName[0]
	}
	return org.UID
}
