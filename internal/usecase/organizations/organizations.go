// Package organizations lists catalog organizations with full-text, country
// and provider-role filtering.
package organizations

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/metadex-cloud/metadex/internal/domain"
	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
	"github.com/metadex-cloud/metadex/internal/store"
	"github.com/metadex-cloud/metadex/internal/taxonomy"
	"github.com/metadex-cloud/metadex/internal/usecase/search"
)

// Provider role filter values.
const (
	TypeDataProviders       = "dataproviders"
	TypeServiceProviders    = "serviceproviders"
	TypeFacilitiesProviders = "facilitiesproviders"
)

// Bean is the external projection of an organization.
type Bean struct {
	ID        string `json:"id"`
	Logo      string `json:"logo,omitempty"`
	URL       string `json:"url,omitempty"`
	LegalName string `json:"legalName"`
	Country   string `json:"country,omitempty"`
}

// Request narrows the organization listing. All fields are optional and
// combine with AND.
type Request struct {
	IDs     []string
	Query   []string
	Country []string
	Types   []string
}

// Service lists and resolves organizations.
type Service struct {
	store      store.EntityStore
	prefetcher search.Prefetcher
	resolver   *taxonomy.GroupResolver
}

// NewService wires the organizations use case.
func NewService(st store.EntityStore, prefetcher search.Prefetcher, resolver *taxonomy.GroupResolver) *Service {
	return &Service{store: st, prefetcher: prefetcher, resolver: resolver}
}

// Get resolves one organization by id.
func (s *Service) Get(ctx context.Context, id string) (Bean, error) {
	org, err := s.store.Retrieve(ctx, entity.Organization, id)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return Bean{}, fmt.Errorf("%w: organization %q", domain.ErrNotFound, id)
		}
		return Bean{}, fmt.Errorf("%w: retrieving organization %q: %v", domain.ErrUpstreamUnavailable, id, err)
	}
	return toBean(org), nil
}

// List returns the organizations matching the request, sorted by legal name.
func (s *Service) List(ctx context.Context, req Request) ([]Bean, error) {
	orgs, err := s.store.RetrieveAll(ctx, entity.Organization)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieving organizations: %v", domain.ErrUpstreamUnavailable, err)
	}

	snap, err := s.prefetcher.Snapshot(ctx, orgs)
	if err != nil {
		return nil, err
	}

	roles, err := s.providerRoles(ctx, snap, req.Types)
	if err != nil {
		return nil, err
	}

	var ids map[string]struct{}
	if len(req.IDs) > 0 {
		ids = s.resolver.ExpandSet(snap, req.IDs)
	}

	beans := make([]Bean, 0, len(orgs))
	for _, org := range orgs {
		if ids != nil {
			if _, ok := ids[org.InstanceID]; !ok {
				continue
			}
		}
		if len(req.Country) > 0 && !matchesCountry(org, req.Country) {
			continue
		}
		if len(req.Query) > 0 && !matchesQuery(org, snap, req.Query) {
			continue
		}
		if roles != nil {
			if _, ok := roles[org.InstanceID]; !ok {
				continue
			}
		}
		beans = append(beans, toBean(org))
	}

	sort.Slice(beans, func(i, j int) bool {
		if beans[i].LegalName != beans[j].LegalName {
			return beans[i].LegalName < beans[j].LegalName
		}
		return beans[i].ID < beans[j].ID
	})
	return beans, nil
}

// providerRoles computes the set of organization ids holding any of the
// requested provider roles. Returns nil when no role filter is active.
func (s *Service) providerRoles(ctx context.Context, snap *snapshot.Snapshot, types []string) (map[string]struct{}, error) {
	if len(types) == 0 {
		return nil, nil
	}

	want := map[string]bool{}
	for _, t := range types {
		want[strings.ToLower(strings.TrimSpace(t))] = true
	}

	roles := map[string]struct{}{}

	if want[TypeDataProviders] {
		products, err := s.store.RetrieveAll(ctx, entity.DataProduct)
		if err != nil {
			return nil, fmt.Errorf("%w: retrieving dataproducts: %v", domain.ErrUpstreamUnavailable, err)
		}
		for _, product := range products {
			for _, ref := range product.Refs(entity.RelPublisher) {
				addGroup(roles, s.resolver.Expand(snap, ref.InstanceID))
			}
		}
	}
	if want[TypeServiceProviders] {
		services, err := s.store.RetrieveAll(ctx, entity.WebService)
		if err != nil {
			return nil, fmt.Errorf("%w: retrieving webservices: %v", domain.ErrUpstreamUnavailable, err)
		}
		for _, ws := range services {
			for _, ref := range ws.Refs(entity.RelProvider) {
				addGroup(roles, s.resolver.Expand(snap, ref.InstanceID))
			}
		}
	}
	if want[TypeFacilitiesProviders] {
		for _, org := range snap.Kind(entity.Organization) {
			if len(org.Refs(entity.RelOwns)) > 0 {
				addGroup(roles, s.resolver.Expand(snap, org.InstanceID))
			}
		}
	}
	return roles, nil
}

// FilterFacilitiesByOwner narrows facilities to those owned by the given
// organizations. Ownership links are not populated by the harvesters yet, so
// every facility passes through.
// TODO: apply the owner relation once the harvesters deliver it.
func FilterFacilitiesByOwner(facilities []entity.Record, owners []string) []entity.Record {
	return facilities
}

func addGroup(set map[string]struct{}, ids []string) {
	for _, id := range ids {
		set[id] = struct{}{}
	}
}

func matchesCountry(org entity.Record, countries []string) bool {
	for _, c := range countries {
		if strings.EqualFold(org.Country, c) {
			return true
		}
	}
	return false
}

// matchesQuery requires every term to hit the legal name, uid or an
// identifier. Terms arrive lower-cased from the criteria parser.
func matchesQuery(org entity.Record, snap *snapshot.Snapshot, terms []string) bool {
	for _, term := range terms {
		if !matchesTerm(org, snap, term) {
			return false
		}
	}
	return true
}

func matchesTerm(org entity.Record, snap *snapshot.Snapshot, term string) bool {
	for _, name := range org.LegalName {
		if strings.Contains(strings.ToLower(name), term) {
			return true
		}
	}
	if strings.Contains(strings.ToLower(org.UID), term) {
		return true
	}
	for _, ident := range snap.Resolve(org.Refs(entity.RelIdentifier)) {
		if strings.Contains(strings.ToLower(ident.Identifier), term) {
			return true
		}
	}
	return false
}

func toBean(org entity.Record) Bean {
	return Bean{
		ID:        org.InstanceID,
		Logo:      org.Logo,
		URL:       org.URL,
		LegalName: strings.Join(org.LegalName, ";"),
		Country:   org.Country,
	}
}
