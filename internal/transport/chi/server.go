// Package chi exposes the catalog over HTTP: search, details, facilities,
// software, organizations, health and metrics.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/metadex-cloud/metadex/internal/domain"
	"github.com/metadex-cloud/metadex/internal/domain/criteria"
	healthuc "github.com/metadex-cloud/metadex/internal/usecase/health"
	organizationsuc "github.com/metadex-cloud/metadex/internal/usecase/organizations"
	searchuc "github.com/metadex-cloud/metadex/internal/usecase/search"
	softwareuc "github.com/metadex-cloud/metadex/internal/usecase/software"
	"github.com/metadex-cloud/metadex/internal/version"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers of the public API.
type Server struct {
	search        *searchuc.Service
	organizations *organizationsuc.Service
	software      *softwareuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	organizations *organizationsuc.Service,
	software *softwareuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:        search,
		organizations: organizations,
		software:      software,
		health:        health,
		logger:        logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrParameterParse, http.StatusBadRequest),
		sentinelHandler(domain.ErrUnknownKind, http.StatusBadRequest),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusBadGateway),
	}
	return s
}

// Routes mounts the API handlers on a router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/resources/search", s.SearchResources)
		r.Get("/resources/details/{id}", s.ResourceDetails)
		r.Get("/facilities/search", s.SearchFacilities)
		r.Get("/organizations", s.ListOrganizations)
		r.Get("/organizations/{id}", s.GetOrganization)
		r.Get("/software/applications/{id}", s.SoftwareApplication)
		r.Get("/software/sourcecode/{id}", s.SoftwareSourceCode)
	})
	r.Get("/health", s.Health)
	r.Get("/metrics", s.Metrics)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// SearchResources handles GET /api/v1/resources/search.
func (s *Server) SearchResources(w http.ResponseWriter, r *http.Request) {
	// Unparsable date or bbox parameters deactivate their stage instead of
	// failing the request.
	c, errs := criteria.Parse(flattenQuery(r))
	for _, perr := range errs {
		s.logger.Warn("ignoring unparsable search parameter", zap.Error(perr))
	}

	resp, err := s.search.Search(r.Context(), searchuc.Request{
		Criteria:   c,
		Privileged: Privileged(r.Context()),
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ResourceDetails handles GET /api/v1/resources/details/{id}.
func (s *Server) ResourceDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	extended := r.URL.Query().Get("extended") == "true"

	item, err := s.search.Details(r.Context(), id, extended, Privileged(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// SearchFacilities handles GET /api/v1/facilities/search. It shares the
// resource search parameters, narrowed by facilitytypes instead of the
// dataproduct-specific filters.
func (s *Server) SearchFacilities(w http.ResponseWriter, r *http.Request) {
	c, errs := criteria.Parse(flattenQuery(r))
	for _, perr := range errs {
		s.logger.Warn("ignoring unparsable search parameter", zap.Error(perr))
	}

	resp, err := s.search.SearchFacilities(r.Context(), c)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// SoftwareApplication handles GET /api/v1/software/applications/{id}.
func (s *Server) SoftwareApplication(w http.ResponseWriter, r *http.Request) {
	details, err := s.software.Application(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// SoftwareSourceCode handles GET /api/v1/software/sourcecode/{id}.
func (s *Server) SoftwareSourceCode(w http.ResponseWriter, r *http.Request) {
	details, err := s.software.SourceCode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// ListOrganizations handles GET /api/v1/organizations.
func (s *Server) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := organizationsuc.Request{
		IDs:     splitParam(q.Get("id")),
		Query:   splitParamLower(q.Get("q")),
		Country: splitParam(q.Get("country")),
		Types:   splitParam(q.Get("type")),
	}

	beans, err := s.organizations.List(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, beans)
}

// GetOrganization handles GET /api/v1/organizations/{id}.
func (s *Server) GetOrganization(w http.ResponseWriter, r *http.Request) {
	bean, err := s.organizations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bean)
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":  report.Status,
		"version": version.Version,
		"checks":  report.Checks,
	})
}

// flattenQuery keeps the first value of every query parameter; the search
// parameters are all single-valued comma-separated lists.
func flattenQuery(r *http.Request) map[string]string {
	out := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}

func splitParam(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func splitParamLower(raw string) []string {
	var out []string
	for _, s := range splitParam(raw) {
		out = append(out, strings.ToLower(s))
	}
	return out
}

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

// safeDomainMessage exposes the full error text only for known sentinels.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrParameterParse,
		domain.ErrUnknownKind,
		domain.ErrMalformedGeometry,
		domain.ErrUpstreamUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	return "internal error"
}
