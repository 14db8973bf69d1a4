package search

import (
	"time"

	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
	"github.com/metadex-cloud/metadex/internal/plugins"
	"github.com/metadex-cloud/metadex/internal/store/memory"
	"github.com/metadex-cloud/metadex/internal/taxonomy"
	"github.com/metadex-cloud/metadex/internal/usecase/assemble"
	"github.com/metadex-cloud/metadex/internal/usecase/facets"
	"github.com/metadex-cloud/metadex/internal/usecase/prefetch"
)

// Shared fixture: two published dataproducts and one draft, three
// distributions, one shared webservice, two organizations, two facilities.

func date(y, m, d int) *time.Time {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func refs(kind entity.Kind, ids ...string) []entity.Reference {
	out := make([]entity.Reference, len(ids))
	for i, id := range ids {
		out[i] = entity.Reference{Kind: kind, InstanceID: id}
	}
	return out
}

func fixtureRecords() []entity.Record {
	return []entity.Record{
		{
			InstanceID: "org-a", Kind: entity.Organization,
			UID: "org/alpha", LegalName: []string{"Alpha Observatory"}, Country: "IT",
		},
		{
			InstanceID: "org-b", Kind: entity.Organization,
			UID: "org/beta", LegalName: []string{"Beta Institute"}, Country: "FR",
		},
		{
			InstanceID: "ws-shared", Kind: entity.WebService,
			UID: "ws/shared", Name: "Shared catalog service",
			Description: []string{"FDSN style access"},
			Keywords:    "stations, waveforms",
			Relations: map[string][]entity.Reference{
				entity.RelProvider:      refs(entity.Organization, "org-b"),
				entity.RelSpatialExtent: refs(entity.Location, "loc-eu"),
				entity.RelCategory:      refs(entity.Category, "cat-wms"),
			},
		},
		{
			InstanceID: "loc-eu", Kind: entity.Location,
			WKT: "POLYGON ((-10 35, 30 35, 30 60, -10 60, -10 35))",
		},
		{InstanceID: "temp-old", Kind: entity.Temporal, StartDate: date(1990, 1, 1), EndDate: date(2000, 1, 1)},
		{InstanceID: "temp-open", Kind: entity.Temporal, StartDate: date(2010, 1, 1)},
		{
			InstanceID: "cat-root", Kind: entity.Category, Name: "Domains",
			Relations: map[string][]entity.Reference{
				entity.RelNarrower: refs(entity.Category, "cat-seis", "cat-gnss"),
			},
		},
		{InstanceID: "cat-seis", Kind: entity.Category, Name: "Seismology", UID: "category:seismology"},
		{InstanceID: "cat-gnss", Kind: entity.Category, Name: "Geodesy", UID: "category:geodesy"},
		{InstanceID: "cat-wms", Kind: entity.Category, Name: "WMS", UID: "category:servicetype/wms"},
		{
			InstanceID: "op-1", Kind: entity.Operation,
			Template: "https://api.example.org/fdsn{?format}",
			Relations: map[string][]entity.Reference{
				entity.RelMapping: refs(entity.Mapping, "map-format"),
			},
		},
		{
			InstanceID: "map-format", Kind: entity.Mapping,
			Property: "schema:encodingFormat", Variable: "format",
			ParamValue: []string{"application/vnd.ogc.wms_xml", "json"},
		},
		{
			InstanceID: "dp-quake", Kind: entity.DataProduct,
			UID: "product/quake", MetaID: "meta-quake",
			Title:       []string{"Tsunami hazard bulletin"},
			Description: []string{"Tide gauge network readings"},
			Keywords:    "seismic, waveforms",
			Relations: map[string][]entity.Reference{
				entity.RelDistribution:   refs(entity.Distribution, "dist-quake"),
				entity.RelPublisher:      refs(entity.Organization, "org-a"),
				entity.RelCategory:       refs(entity.Category, "cat-seis"),
				entity.RelTemporalExtent: refs(entity.Temporal, "temp-old"),
				entity.RelSpatialExtent:  refs(entity.Location, "loc-eu"),
				entity.RelIdentifier:     refs(entity.Identifier, "ident-quake"),
			},
		},
		{InstanceID: "ident-quake", Kind: entity.Identifier, Identifier: "10.5281/quake", IdentifierType: "DOI"},
		{
			InstanceID: "dist-quake", Kind: entity.Distribution,
			UID:   "dist/quake",
			Title: []string{"Earthquake catalog"}, Description: []string{"Historical earthquakes"},
			Relations: map[string][]entity.Reference{
				entity.RelAccessService:      refs(entity.WebService, "ws-shared"),
				entity.RelSupportedOperation: refs(entity.Operation, "op-1"),
				entity.RelDataProduct:        refs(entity.DataProduct, "dp-quake"),
			},
		},
		{
			InstanceID: "dp-gnss", Kind: entity.DataProduct,
			UID:      "product/gnss",
			Keywords: "gnss, position",
			Relations: map[string][]entity.Reference{
				entity.RelDistribution:   refs(entity.Distribution, "dist-gnss"),
				entity.RelPublisher:      refs(entity.Organization, "org-a"),
				entity.RelCategory:       refs(entity.Category, "cat-gnss"),
				entity.RelTemporalExtent: refs(entity.Temporal, "temp-open"),
			},
		},
		{
			InstanceID: "dist-gnss", Kind: entity.Distribution,
			UID:   "dist/gnss",
			Title: []string{"GNSS positions"},
			Format: "text/csv", DownloadURL: []string{"https://files.example.org/gnss.csv"},
			Relations: map[string][]entity.Reference{
				entity.RelAccessService: refs(entity.WebService, "ws-shared"),
				entity.RelDataProduct:   refs(entity.DataProduct, "dp-gnss"),
			},
		},
		{
			InstanceID: "fac-borehole", Kind: entity.Facility,
			UID:   "facility/borehole",
			Title: []string{"Borehole observatory"}, Description: []string{"Deep drilling site"},
			Keywords: "drilling, downhole",
			Relations: map[string][]entity.Reference{
				entity.RelCategory:      refs(entity.Category, "cat-seis"),
				entity.RelSpatialExtent: refs(entity.Location, "loc-eu"),
			},
		},
		{
			InstanceID: "fac-array", Kind: entity.Facility,
			UID:   "facility/array",
			Title: []string{"Antenna array"}, Description: []string{"Remote sensing array"},
			Keywords: "antennas",
			Relations: map[string][]entity.Reference{
				entity.RelCategory:      refs(entity.Category, "cat-gnss"),
				entity.RelSpatialExtent: refs(entity.Location, "loc-pacific"),
			},
		},
		{
			InstanceID: "loc-pacific", Kind: entity.Location,
			WKT: "POINT (-150 -20)",
		},
		{
			InstanceID: "dp-draft", Kind: entity.DataProduct,
			UID: "product/draft", Status: "draft", EditorID: "org-a",
			Keywords: "seismic",
			Relations: map[string][]entity.Reference{
				entity.RelDistribution: refs(entity.Distribution, "dist-draft"),
			},
		},
		{
			InstanceID: "dist-draft", Kind: entity.Distribution,
			Title: []string{"Draft distribution"},
			Relations: map[string][]entity.Reference{
				entity.RelDataProduct: refs(entity.DataProduct, "dp-draft"),
			},
		},
	}
}

func fixtureStore() *memory.Store {
	st := memory.NewStore()
	st.Seed(fixtureRecords()...)
	return st
}

// fixtureSnapshot freezes the full fixture for stage-level tests.
func fixtureSnapshot() *snapshot.Snapshot {
	b := snapshot.NewBuilder()
	for _, rec := range fixtureRecords() {
		b.Merge(rec.Kind, []entity.Record{rec})
	}
	return b.Freeze()
}

func fixtureProducts(snap *snapshot.Snapshot) []entity.Record {
	var out []entity.Record
	for _, id := range []string{"dp-quake", "dp-gnss", "dp-draft"} {
		if rec, ok := snap.Get(entity.DataProduct, id); ok {
			out = append(out, rec)
		}
	}
	return out
}

func newEmptyPluginTable() *plugins.Table {
	return plugins.NewTable(10)
}

func newTestService(st *memory.Store) *Service {
	resolver := taxonomy.NewGroupResolver()
	assembler := assemble.NewAssembler(
		"https://api.example.org/api/v1/resources/details",
		assemble.NewFormatsGenerator(newEmptyPluginTable(), "https://api.example.org/api/v1/execute"),
	)
	return NewService(
		st,
		prefetch.New(st, entity.CatalogSchema(), 3),
		NewPipeline(4, 100),
		resolver,
		assembler,
		facets.NewBuilder(resolver),
	)
}
