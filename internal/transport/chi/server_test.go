package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/plugins"
	"github.com/metadex-cloud/metadex/internal/store/memory"
	"github.com/metadex-cloud/metadex/internal/taxonomy"
	"github.com/metadex-cloud/metadex/internal/usecase/assemble"
	"github.com/metadex-cloud/metadex/internal/usecase/facets"
	healthuc "github.com/metadex-cloud/metadex/internal/usecase/health"
	organizationsuc "github.com/metadex-cloud/metadex/internal/usecase/organizations"
	"github.com/metadex-cloud/metadex/internal/usecase/prefetch"
	searchuc "github.com/metadex-cloud/metadex/internal/usecase/search"
	softwareuc "github.com/metadex-cloud/metadex/internal/usecase/software"
)

func refs(kind entity.Kind, ids ...string) []entity.Reference {
	out := make([]entity.Reference, len(ids))
	for i, id := range ids {
		out[i] = entity.Reference{Kind: kind, InstanceID: id}
	}
	return out
}

func seedStore() *memory.Store {
	st := memory.NewStore()
	st.Seed(
		entity.Record{
			InstanceID: "org-1", Kind: entity.Organization,
			LegalName: []string{"Alpha Observatory"}, Country: "IT",
		},
		entity.Record{
			InstanceID: "dp-1", Kind: entity.DataProduct,
			UID: "product/one", Keywords: "seismic",
			Relations: map[string][]entity.Reference{
				entity.RelDistribution: refs(entity.Distribution, "dist-1"),
				entity.RelPublisher:    refs(entity.Organization, "org-1"),
			},
		},
		entity.Record{
			InstanceID: "dist-1", Kind: entity.Distribution,
			UID: "dist/one", Title: []string{"Catalog"},
			Relations: map[string][]entity.Reference{
				entity.RelDataProduct: refs(entity.DataProduct, "dp-1"),
			},
		},
		entity.Record{
			InstanceID: "dp-draft", Kind: entity.DataProduct,
			UID: "product/draft", Status: "draft", Keywords: "seismic",
			Relations: map[string][]entity.Reference{
				entity.RelDistribution: refs(entity.Distribution, "dist-draft"),
			},
		},
		entity.Record{InstanceID: "dist-draft", Kind: entity.Distribution, Title: []string{"Draft"}},
		entity.Record{
			InstanceID: "fac-1", Kind: entity.Facility,
			UID: "facility/one", Title: []string{"Test site"}, Keywords: "drilling",
		},
		entity.Record{
			InstanceID: "app-1", Kind: entity.Software,
			UID: "software/one", Title: []string{"Converter"},
			DownloadURL: []string{"https://releases.example.org/converter.jar"},
		},
	)
	return st
}

func newTestRouter(apiKeys []string) http.Handler {
	st := seedStore()
	resolver := taxonomy.NewGroupResolver()
	prefetcher := prefetch.New(st, entity.CatalogSchema(), 3)
	assembler := assemble.NewAssembler(
		"http://localhost/api/v1/resources/details",
		assemble.NewFormatsGenerator(plugins.NewTable(10), "http://localhost/api/v1/execute"),
	)
	searchSvc := searchuc.NewService(
		st, prefetcher, searchuc.NewPipeline(2, 100), resolver, assembler, facets.NewBuilder(resolver),
	)
	organizationsSvc := organizationsuc.NewService(st, prefetcher, resolver)
	softwareSvc := softwareuc.NewService(st, prefetcher)
	healthSvc := healthuc.New(st, nil)

	server := NewServer(searchSvc, organizationsSvc, softwareSvc, healthSvc, zap.NewNop())

	r := chi.NewRouter()
	r.Use(BackofficeAuthMiddleware(apiKeys))
	server.Routes(r)
	return r
}

func doRequest(t *testing.T, handler http.Handler, method, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSearchEndpoint(t *testing.T) {
	router := newTestRouter(nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/resources/search?keywords=seismic", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "dist-1" {
		t.Fatalf("results = %+v", resp.Results)
	}
}

func TestSearchEndpointBadParameterDeactivatesStage(t *testing.T) {
	router := newTestRouter(nil)

	// An unparsable corner deactivates the spatial filter; the rest of the
	// request still runs.
	rec := doRequest(t, router, http.MethodGet,
		"/api/v1/resources/search?keywords=seismic&epos:northernmostLatitude=abc"+
			"&epos:southernmostLatitude=1&epos:easternmostLongitude=2&epos:westernmostLongitude=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "dist-1" {
		t.Fatalf("results = %+v", resp.Results)
	}
}

func TestDetailsEndpoint(t *testing.T) {
	router := newTestRouter(nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/resources/details/dist-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/resources/details/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestFacilitiesSearchEndpoint(t *testing.T) {
	router := newTestRouter(nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/facilities/search?keywords=drilling", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "fac-1" {
		t.Fatalf("results = %+v", resp.Results)
	}
}

func TestSoftwareEndpoints(t *testing.T) {
	router := newTestRouter(nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/software/applications/app-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var details struct {
		ID               string `json:"id"`
		AvailableFormats []struct {
			Label string `json:"label"`
		} `json:"availableFormats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &details); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if details.ID != "app-1" {
		t.Errorf("id = %q", details.ID)
	}
	if len(details.AvailableFormats) != 1 || details.AvailableFormats[0].Label != "JAR" {
		t.Errorf("formats = %+v", details.AvailableFormats)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/software/sourcecode/app-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestOrganizationsEndpoint(t *testing.T) {
	router := newTestRouter(nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/organizations?country=IT", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var beans []struct {
		ID        string `json:"id"`
		LegalName string `json:"legalName"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &beans); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(beans) != 1 || beans[0].LegalName != "Alpha Observatory" {
		t.Fatalf("beans = %+v", beans)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/organizations/org-missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(nil)

	rec := doRequest(t, router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q", body.Status)
	}
}
