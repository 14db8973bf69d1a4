package facets

import (
	"testing"

	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/facet"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
	"github.com/metadex-cloud/metadex/internal/taxonomy"
)

func refs(kind entity.Kind, ids ...string) []entity.Reference {
	out := make([]entity.Reference, len(ids))
	for i, id := range ids {
		out[i] = entity.Reference{Kind: kind, InstanceID: id}
	}
	return out
}

func buildSnapshot(records ...entity.Record) *snapshot.Snapshot {
	b := snapshot.NewBuilder()
	for _, rec := range records {
		b.Merge(rec.Kind, []entity.Record{rec})
	}
	return b.Freeze()
}

func fixture() (*snapshot.Snapshot, []entity.Record) {
	snap := buildSnapshot(
		entity.Record{InstanceID: "cat-root", Kind: entity.Category, Name: "Domains",
			Relations: map[string][]entity.Reference{
				entity.RelNarrower: refs(entity.Category, "cat-seis", "cat-geo"),
			}},
		entity.Record{InstanceID: "cat-seis", Kind: entity.Category, Name: "Seismology"},
		entity.Record{InstanceID: "cat-geo", Kind: entity.Category, Name: "Geodesy"},
		entity.Record{InstanceID: "cat-svc", Kind: entity.Category, Name: "WFS"},
		entity.Record{InstanceID: "org-umbrella", Kind: entity.Organization,
			LegalName: []string{"Umbrella Research"},
			Relations: map[string][]entity.Reference{
				entity.RelMember: refs(entity.Organization, "org-a"),
			}},
		entity.Record{InstanceID: "org-a", Kind: entity.Organization,
			LegalName: []string{"Alpha Observatory"},
			Relations: map[string][]entity.Reference{
				entity.RelMemberOf: refs(entity.Organization, "org-umbrella"),
			}},
		entity.Record{InstanceID: "ws-1", Kind: entity.WebService,
			Relations: map[string][]entity.Reference{
				entity.RelProvider: refs(entity.Organization, "org-a"),
				entity.RelCategory: refs(entity.Category, "cat-svc"),
			}},
		entity.Record{InstanceID: "dist-1", Kind: entity.Distribution,
			Relations: map[string][]entity.Reference{
				entity.RelAccessService: refs(entity.WebService, "ws-1"),
			}},
		entity.Record{InstanceID: "dp-1", Kind: entity.DataProduct,
			Keywords: "waveforms, stations",
			Relations: map[string][]entity.Reference{
				entity.RelDistribution: refs(entity.Distribution, "dist-1"),
				entity.RelCategory:     refs(entity.Category, "cat-seis"),
			}},
	)
	rec, _ := snap.Get(entity.DataProduct, "dp-1")
	return snap, []entity.Record{rec}
}

func TestBuildKeywords(t *testing.T) {
	snap, matched := fixture()
	agg := NewBuilder(taxonomy.NewGroupResolver()).Build(snap, matched)

	kws := agg.Keywords.Children
	if len(kws) != 2 {
		t.Fatalf("got %d keywords, want 2", len(kws))
	}
	// Alphabetical, with stable opaque ids.
	if kws[0].Name != "stations" || kws[1].Name != "waveforms" {
		t.Errorf("keywords out of order: %v", kws)
	}
	if kws[0].ID != facet.KeywordID("stations") {
		t.Errorf("keyword id = %q", kws[0].ID)
	}
}

func TestBuildOrganisationsWithGroup(t *testing.T) {
	snap, matched := fixture()
	agg := NewBuilder(taxonomy.NewGroupResolver()).Build(snap, matched)

	orgs := agg.Organisations.Children
	if len(orgs) != 1 {
		t.Fatalf("got %d organisations, want 1 direct provider", len(orgs))
	}
	if orgs[0].ID != "org-a" || orgs[0].Name != "Alpha Observatory" {
		t.Errorf("provider = %+v", orgs[0])
	}
	if len(orgs[0].Children) != 1 || orgs[0].Children[0].ID != "org-umbrella" {
		t.Errorf("related providers = %+v", orgs[0].Children)
	}
}

func TestBuildCategoryTreePruned(t *testing.T) {
	snap, matched := fixture()
	agg := NewBuilder(taxonomy.NewGroupResolver()).Build(snap, matched)

	if len(agg.Categories) != 1 {
		t.Fatalf("got %d category roots, want 1", len(agg.Categories))
	}
	root := agg.Categories[0]
	if root.ID != "cat-root" {
		t.Errorf("root = %q", root.ID)
	}
	if len(root.Children) != 1 || root.Children[0].ID != "cat-seis" {
		t.Errorf("unmatched branches must be pruned, got %+v", root.Children)
	}
}

func TestBuildDomainAndTypeLists(t *testing.T) {
	snap, matched := fixture()
	agg := NewBuilder(taxonomy.NewGroupResolver()).Build(snap, matched)

	if len(agg.ScienceDomains.Children) != 1 || agg.ScienceDomains.Children[0].Name != "Seismology" {
		t.Errorf("science domains = %+v", agg.ScienceDomains.Children)
	}
	if agg.ScienceDomains.Children[0].ID != "cat-seis" {
		t.Errorf("science domain id = %q", agg.ScienceDomains.Children[0].ID)
	}
	if len(agg.ServiceTypes.Children) != 1 || agg.ServiceTypes.Children[0].Name != "WFS" {
		t.Errorf("service types = %+v", agg.ServiceTypes.Children)
	}
}

func TestNarrow(t *testing.T) {
	snap, matched := fixture()
	agg := NewBuilder(taxonomy.NewGroupResolver()).Build(snap, matched)

	kw := agg.Narrow("keywords")
	if len(kw.Keywords.Children) != 2 {
		t.Errorf("narrowed keywords = %+v", kw.Keywords.Children)
	}
	if kw.Categories != nil || len(kw.Organisations.Children) != 0 {
		t.Errorf("other groups must be dropped, got %+v", kw)
	}

	cats := agg.Narrow("Categories")
	if len(cats.Categories) != 1 || len(cats.Keywords.Children) != 0 {
		t.Errorf("narrow must be case-insensitive, got %+v", cats)
	}

	if agg.Narrow("") != agg || agg.Narrow("everything") != agg {
		t.Error("empty or unknown group keeps the full set")
	}
}

func TestBuildEmptyMatchSet(t *testing.T) {
	snap, _ := fixture()
	agg := NewBuilder(taxonomy.NewGroupResolver()).Build(snap, nil)

	if len(agg.Categories) != 0 {
		t.Errorf("empty match set must prune the whole tree")
	}
	if len(agg.Keywords.Children) != 0 || len(agg.Organisations.Children) != 0 {
		t.Errorf("empty match set must yield empty lists")
	}
}
