package traverse

import (
	"reflect"
	"testing"

	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
)

func buildSnapshot(t *testing.T, records ...entity.Record) *snapshot.Snapshot {
	t.Helper()
	b := snapshot.NewBuilder()
	for _, r := range records {
		b.Merge(r.Kind, []entity.Record{r})
	}
	return b.Freeze()
}

func ref(kind entity.Kind, id string) entity.Reference {
	return entity.Reference{Kind: kind, InstanceID: id}
}

func fixtureProduct() (entity.Record, []entity.Record) {
	product := entity.Record{
		InstanceID: "dp-1", Kind: entity.DataProduct,
		Relations: map[string][]entity.Reference{
			entity.RelDistribution:  {ref(entity.Distribution, "dist-1"), ref(entity.Distribution, "dist-2")},
			entity.RelSpatialExtent: {ref(entity.Location, "loc-own")},
			entity.RelPublisher:     {ref(entity.Organization, "org-pub")},
		},
	}
	related := []entity.Record{
		{InstanceID: "dist-1", Kind: entity.Distribution, Relations: map[string][]entity.Reference{
			entity.RelAccessService: {ref(entity.WebService, "ws-1")},
		}},
		{InstanceID: "dist-2", Kind: entity.Distribution, Relations: map[string][]entity.Reference{
			entity.RelAccessService: {ref(entity.WebService, "ws-1")},
		}},
		{InstanceID: "ws-1", Kind: entity.WebService, Relations: map[string][]entity.Reference{
			entity.RelSpatialExtent: {ref(entity.Location, "loc-ws")},
			entity.RelProvider:      {ref(entity.Organization, "org-svc")},
		}},
		{InstanceID: "loc-own", Kind: entity.Location},
		{InstanceID: "loc-ws", Kind: entity.Location},
		{InstanceID: "org-pub", Kind: entity.Organization},
		{InstanceID: "org-svc", Kind: entity.Organization},
	}
	return product, related
}

func ids(records []entity.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.InstanceID
	}
	return out
}

func TestWebServicesDeduplicates(t *testing.T) {
	product, related := fixtureProduct()
	snap := buildSnapshot(t, append(related, product)...)

	got := WebServices(product, snap)
	if !reflect.DeepEqual(ids(got), []string{"ws-1"}) {
		t.Errorf("WebServices = %v, want the shared service once", ids(got))
	}
}

func TestLocationsIncludeWebServiceExtents(t *testing.T) {
	product, related := fixtureProduct()
	snap := buildSnapshot(t, append(related, product)...)

	got := Locations(product, snap)
	if !reflect.DeepEqual(ids(got), []string{"loc-own", "loc-ws"}) {
		t.Errorf("Locations = %v", ids(got))
	}
}

func TestProviderOrgIDs(t *testing.T) {
	product, related := fixtureProduct()
	snap := buildSnapshot(t, append(related, product)...)

	got := ProviderOrgIDs(product, snap)
	if !reflect.DeepEqual(got, []string{"org-pub", "org-svc"}) {
		t.Errorf("ProviderOrgIDs = %v", got)
	}
}

func TestUnresolvedReferences(t *testing.T) {
	product, _ := fixtureProduct()
	// Snapshot holds the product only; every reference dangles.
	snap := buildSnapshot(t, product)

	if got := Distributions(product, snap); len(got) != 0 {
		t.Errorf("Distributions = %v, want none", got)
	}
	if got := Locations(product, snap); len(got) != 0 {
		t.Errorf("Locations = %v, want none", got)
	}
	if got := ProviderOrgIDs(product, snap); !reflect.DeepEqual(got, []string{"org-pub"}) {
		t.Errorf("ProviderOrgIDs = %v, publisher ids need no resolution", got)
	}
}
