// Package criteria converts the flat string-keyed search parameters into a
// typed filter description, validated once at the boundary.
package criteria

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/metadex-cloud/metadex/internal/domain"
)

// Recognized query parameter keys.
const (
	KeyQuery            = "q"
	KeyKeywords         = "keywords"
	KeyOrganisations    = "organisations"
	KeyCountry          = "country"
	KeyNorthernLat      = "epos:northernmostLatitude"
	KeySouthernLat      = "epos:southernmostLatitude"
	KeyEasternLon       = "epos:easternmostLongitude"
	KeyWesternLon       = "epos:westernmostLongitude"
	KeyStartDate        = "schema:startDate"
	KeyEndDate          = "schema:endDate"
	KeyScienceDomains   = "sciencedomains"
	KeyServiceTypes     = "servicetypes"
	KeyFacilityTypes    = "facilitytypes"
	KeyEquipmentTypes   = "equipmenttypes"
	KeyFacets           = "facets"
	KeyFacetsType       = "facetstype"
	KeyVersioningStatus = "versioningStatus"
)

// BoundingBox is a rectangular query region given by its four corners.
type BoundingBox struct {
	NorthLat float64
	SouthLat float64
	EastLon  float64
	WestLon  float64
}

// Criteria is the typed bag of optional filter fields. A nil/empty field means
// the corresponding pipeline stage is a no-op.
type Criteria struct {
	Query            []string
	Keywords         []string
	Organisations    []string
	Country          []string
	BBox             *BoundingBox
	StartDate        *time.Time
	EndDate          *time.Time
	ScienceDomains   []string
	ServiceTypes     []string
	FacilityTypes    []string
	EquipmentTypes   []string
	Facets           bool
	FacetsType       string
	VersioningStatus []string
}

// HasDateRange reports whether at least one temporal bound is set.
func (c Criteria) HasDateRange() bool {
	return c.StartDate != nil || c.EndDate != nil
}

// Parse builds Criteria from flat request parameters. Unusable date or bbox
// values deactivate only their own stage: the error is collected (wrapping
// domain.ErrParameterParse) and parsing continues.
func Parse(params map[string]string) (Criteria, []error) {
	var c Criteria
	var errs []error

	if v, ok := params[KeyQuery]; ok {
		c.Query = splitLower(v)
	}
	if v, ok := params[KeyKeywords]; ok {
		c.Keywords = splitLower(v)
	}
	if v, ok := params[KeyOrganisations]; ok {
		c.Organisations = splitTrim(v)
	}
	if v, ok := params[KeyCountry]; ok {
		c.Country = splitLower(v)
	}
	if v, ok := params[KeyScienceDomains]; ok {
		c.ScienceDomains = splitTrim(v)
	}
	if v, ok := params[KeyServiceTypes]; ok {
		c.ServiceTypes = splitTrim(v)
	}
	if v, ok := params[KeyFacilityTypes]; ok {
		c.FacilityTypes = splitTrim(v)
	}
	if v, ok := params[KeyEquipmentTypes]; ok {
		c.EquipmentTypes = splitTrim(v)
	}
	if v, ok := params[KeyVersioningStatus]; ok {
		c.VersioningStatus = splitTrim(v)
	}

	c.Facets = params[KeyFacets] == "true"
	c.FacetsType = params[KeyFacetsType]

	if bbox, err := parseBBox(params); err != nil {
		errs = append(errs, err)
	} else {
		c.BBox = bbox
	}

	if t, err := parseDate(params, KeyStartDate); err != nil {
		errs = append(errs, err)
	} else {
		c.StartDate = t
	}
	if t, err := parseDate(params, KeyEndDate); err != nil {
		errs = append(errs, err)
	} else {
		c.EndDate = t
	}

	return c, errs
}

// parseBBox returns nil when any corner key is missing: only a complete box
// activates the geospatial stage.
func parseBBox(params map[string]string) (*BoundingBox, error) {
	keys := []string{KeyNorthernLat, KeySouthernLat, KeyEasternLon, KeyWesternLon}
	vals := make([]float64, len(keys))
	for i, key := range keys {
		raw, ok := params[key]
		if !ok {
			return nil, nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", domain.ErrParameterParse, key, raw)
		}
		vals[i] = v
	}

	bbox := &BoundingBox{NorthLat: vals[0], SouthLat: vals[1], EastLon: vals[2], WestLon: vals[3]}
	if bbox.NorthLat < -90 || bbox.NorthLat > 90 || bbox.SouthLat < -90 || bbox.SouthLat > 90 {
		return nil, fmt.Errorf("%w: latitude out of range [-90,90]", domain.ErrParameterParse)
	}
	if bbox.EastLon < -180 || bbox.EastLon > 180 || bbox.WestLon < -180 || bbox.WestLon > 180 {
		return nil, fmt.Errorf("%w: longitude out of range [-180,180]", domain.ErrParameterParse)
	}
	return bbox, nil
}

// dateLayouts are accepted in order. The harvested metadata mixes RFC 3339
// with space-separated and date-only forms.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(params map[string]string, key string) (*time.Time, error) {
	raw, ok := params[key]
	if !ok {
		return nil, nil
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s=%q", domain.ErrParameterParse, key, raw)
}

func splitTrim(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func splitLower(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
