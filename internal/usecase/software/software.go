// Package software resolves software application and source code records
// into detail responses.
package software

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/metadex-cloud/metadex/internal/domain"
	"github.com/metadex-cloud/metadex/internal/domain/discovery"
	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
	"github.com/metadex-cloud/metadex/internal/store"
	"github.com/metadex-cloud/metadex/internal/usecase/search"
)

// Identifier types recognized on software records.
const (
	identifierDOI  = "DOI"
	identifierDDSS = "DDSS-ID"
)

// Details is the external projection of a software record. The source code
// fields are populated for source code records only.
type Details struct {
	ID               string                      `json:"id"`
	UID              string                      `json:"uid,omitempty"`
	Title            string                      `json:"title,omitempty"`
	Description      string                      `json:"description,omitempty"`
	DOI              string                      `json:"doi,omitempty"`
	Identifiers      []string                    `json:"identifiers,omitempty"`
	Categories       []string                    `json:"categories,omitempty"`
	Keywords         []string                    `json:"keywords,omitempty"`
	SoftwareVersion  string                      `json:"softwareVersion,omitempty"`
	LicenseURL       string                      `json:"licenseUrl,omitempty"`
	Requirements     string                      `json:"requirements,omitempty"`
	DownloadURL      string                      `json:"downloadUrl,omitempty"`
	InstallURL       string                      `json:"installUrl,omitempty"`
	AvailableFormats []discovery.AvailableFormat `json:"availableFormats,omitempty"`

	CodeRepository      string `json:"codeRepository,omitempty"`
	ProgrammingLanguage string `json:"programmingLanguage,omitempty"`
	RuntimePlatform     string `json:"runtimePlatform,omitempty"`
}

// Service resolves software entities by id.
type Service struct {
	store      store.EntityStore
	prefetcher search.Prefetcher
}

// NewService wires the software use case.
func NewService(st store.EntityStore, prefetcher search.Prefetcher) *Service {
	return &Service{store: st, prefetcher: prefetcher}
}

// Application resolves one software application. The format list derives
// from the download url, falling back to the application's main page.
func (s *Service) Application(ctx context.Context, id string) (Details, error) {
	rec, snap, err := s.resolve(ctx, entity.Software, id)
	if err != nil {
		return Details{}, err
	}
	d := project(snap, rec)
	d.InstallURL = rec.InstallURL
	d.AvailableFormats = formatFromURL(firstNonEmpty(d.DownloadURL, rec.MainEntityOfPage))
	return d, nil
}

// SourceCode resolves one software source code record. The format list
// derives from the download url, falling back to the code repository.
func (s *Service) SourceCode(ctx context.Context, id string) (Details, error) {
	rec, snap, err := s.resolve(ctx, entity.SourceCode, id)
	if err != nil {
		return Details{}, err
	}
	d := project(snap, rec)
	d.CodeRepository = rec.CodeRepository
	d.ProgrammingLanguage = rec.ProgrammingLanguage
	d.RuntimePlatform = rec.RuntimePlatform
	d.AvailableFormats = formatFromURL(firstNonEmpty(d.DownloadURL, rec.CodeRepository))
	return d, nil
}

func (s *Service) resolve(ctx context.Context, kind entity.Kind, id string) (entity.Record, *snapshot.Snapshot, error) {
	rec, err := s.store.Retrieve(ctx, kind, id)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return entity.Record{}, nil, fmt.Errorf("%w: %s %q", domain.ErrNotFound, kind, id)
		}
		return entity.Record{}, nil, fmt.Errorf("%w: retrieving %s %q: %v", domain.ErrUpstreamUnavailable, kind, id, err)
	}
	snap, err := s.prefetcher.Snapshot(ctx, []entity.Record{rec})
	if err != nil {
		return entity.Record{}, nil, err
	}
	return rec, snap, nil
}

// project fills the fields shared by applications and source code: the
// record's own scalars, its DOI and DDSS identifiers, and the taxonomy
// category uids.
func project(snap *snapshot.Snapshot, rec entity.Record) Details {
	d := Details{
		ID:              rec.InstanceID,
		UID:             rec.UID,
		Title:           strings.Join(rec.Title, ";"),
		Description:     strings.Join(rec.Description, ";"),
		Keywords:        splitKeywords(rec.Keywords),
		SoftwareVersion: rec.SoftwareVersion,
		LicenseURL:      rec.LicenseURL,
		Requirements:    rec.Requirements,
	}
	if len(rec.DownloadURL) > 0 {
		d.DownloadURL = rec.DownloadURL[0]
	}
	for _, ident := range snap.Resolve(rec.Refs(entity.RelIdentifier)) {
		switch {
		case strings.EqualFold(ident.IdentifierType, identifierDOI):
			if d.DOI == "" {
				d.DOI = ident.Identifier
			}
		case strings.EqualFold(ident.IdentifierType, identifierDDSS):
			d.Identifiers = append(d.Identifiers, ident.Identifier)
		}
	}
	for _, cat := range snap.Resolve(rec.Refs(entity.RelCategory)) {
		if strings.Contains(cat.UID, "category:") {
			d.Categories = append(d.Categories, cat.UID)
		}
	}
	return d
}

// extensionPattern matches extension-like path segments. The last occurrence
// wins, so "/v1.2/tool.tar.gz" yields "gz".
var extensionPattern = regexp.MustCompile(`\.([a-zA-Z0-9]+)(?:/|$|\?)`)

// formatFromURL derives the payload format from the url's trailing
// extension. Only the path is scanned, so the host's tld and repository
// pages without a file segment yield no formats.
func formatFromURL(raw string) []discovery.AvailableFormat {
	if raw == "" {
		return nil
	}
	path := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		path = u.Path
	}
	matches := extensionPattern.FindAllStringSubmatch(path, -1)
	if len(matches) == 0 {
		return nil
	}
	ext := strings.ToUpper(matches[len(matches)-1][1])
	return []discovery.AvailableFormat{{
		Label:          ext,
		Format:         ext,
		OriginalFormat: ext,
		Href:           raw,
		Type:           discovery.FormatOriginal,
	}}
}

func splitKeywords(raw string) []string {
	var out []string
	for _, kw := range strings.Split(raw, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
