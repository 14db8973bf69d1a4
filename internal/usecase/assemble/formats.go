package assemble

import (
	"net/url"
	"strings"

	"github.com/metadex-cloud/metadex/internal/domain/discovery"
	"github.com/metadex-cloud/metadex/internal/domain/entity"
	"github.com/metadex-cloud/metadex/internal/domain/snapshot"
	"github.com/metadex-cloud/metadex/internal/plugins"
)

// Converted output formats offered through the plugin table.
const (
	formatGeoJSON = "application/epos.geo+json"
	formatCovJSON = "covjson"
)

// FormatsGenerator computes the ways a distribution's payload can be fetched:
// direct download, the service's native output, plugin conversions, and OGC
// endpoints detected from the operation's parameter mappings.
type FormatsGenerator struct {
	table      *plugins.Table
	executeURL string
}

// NewFormatsGenerator creates a generator. executeURL is the absolute prefix
// of the execute endpoint, without a trailing slash.
func NewFormatsGenerator(table *plugins.Table, executeURL string) *FormatsGenerator {
	return &FormatsGenerator{table: table, executeURL: strings.TrimSuffix(executeURL, "/")}
}

// Generate lists the available formats of one distribution. Downloadable
// files short-circuit: the file link is the only format. Service-backed
// distributions are resolved through their first supported operation.
func (g *FormatsGenerator) Generate(snap *snapshot.Snapshot, dist entity.Record) []discovery.AvailableFormat {
	if len(dist.DownloadURL) > 0 {
		return []discovery.AvailableFormat{{
			Label:          labelFor(dist.Format),
			Format:         dist.Format,
			OriginalFormat: dist.Format,
			Href:           dist.DownloadURL[0],
			Type:           discovery.FormatOriginal,
		}}
	}

	opRef, ok := dist.FirstRef(entity.RelSupportedOperation)
	if !ok {
		return g.fromReturns(dist, "")
	}
	op, ok := snap.Get(entity.Operation, opRef.InstanceID)
	if !ok {
		return g.fromReturns(dist, "")
	}
	execute := g.executeURL + "/" + url.PathEscape(op.InstanceID)

	var out []discovery.AvailableFormat
	out = append(out, g.converted(dist, execute)...)
	out = append(out, g.fromMappings(snap, op, execute)...)
	if len(out) == 0 {
		out = g.fromReturns(dist, execute)
	}
	return out
}

// converted lists the plugin conversions registered for the distribution.
// Only the geographic outputs are exposed; other plugin outputs serve
// internal processing.
func (g *FormatsGenerator) converted(dist entity.Record, execute string) []discovery.AvailableFormat {
	var out []discovery.AvailableFormat
	for _, rel := range g.table.Relations(dist.InstanceID) {
		if rel.OutputFormat != formatGeoJSON && rel.OutputFormat != formatCovJSON {
			continue
		}
		out = append(out, discovery.AvailableFormat{
			Label:          labelFor(rel.OutputFormat),
			Format:         rel.OutputFormat,
			OriginalFormat: rel.InputFormat,
			Href:           execute + "?format=" + url.QueryEscape(rel.OutputFormat),
			Type:           discovery.FormatConverted,
			InputFormat:    rel.InputFormat,
			PluginID:       rel.PluginID,
		})
	}
	return out
}

// fromMappings scans the operation's output-format parameter mapping for
// recognizable service formats.
func (g *FormatsGenerator) fromMappings(snap *snapshot.Snapshot, op entity.Record, execute string) []discovery.AvailableFormat {
	var out []discovery.AvailableFormat
	for _, mapping := range snap.Resolve(op.Refs(entity.RelMapping)) {
		if !isOutputFormatMapping(mapping) {
			continue
		}
		for _, value := range mapping.ParamValue {
			label, ok := serviceLabel(value)
			if !ok {
				continue
			}
			out = append(out, discovery.AvailableFormat{
				Label:          label,
				Format:         value,
				OriginalFormat: value,
				Href:           execute + "?" + url.QueryEscape(mapping.Variable) + "=" + url.QueryEscape(value),
				Type:           discovery.FormatOriginal,
			})
		}
	}
	return out
}

// fromReturns falls back to the distribution's declared return formats.
func (g *FormatsGenerator) fromReturns(dist entity.Record, execute string) []discovery.AvailableFormat {
	href := execute
	if href == "" && len(dist.DownloadURL) > 0 {
		href = dist.DownloadURL[0]
	}
	var out []discovery.AvailableFormat
	seen := map[string]struct{}{}
	for _, format := range dist.Returns {
		if _, ok := seen[format]; ok {
			continue
		}
		seen[format] = struct{}{}
		out = append(out, discovery.AvailableFormat{
			Label:          labelFor(format),
			Format:         format,
			OriginalFormat: format,
			Href:           href,
			Type:           discovery.FormatOriginal,
		})
	}
	return out
}

// isOutputFormatMapping recognizes the parameter that selects the service's
// output encoding.
func isOutputFormatMapping(mapping entity.Record) bool {
	if strings.EqualFold(mapping.Property, "schema:encodingFormat") {
		return true
	}
	return strings.EqualFold(mapping.Variable, "format") || strings.EqualFold(mapping.Variable, "outputFormat")
}

// serviceLabel maps a raw format value to a display label for the service
// kinds clients can render directly.
func serviceLabel(value string) (string, bool) {
	v := strings.ToLower(value)
	switch {
	case strings.Contains(v, "wmts"):
		return "WMTS", true
	case strings.Contains(v, "wms"):
		return "WMS", true
	case strings.Contains(v, "wfs"):
		return "WFS", true
	case strings.Contains(v, "geo+json"), strings.Contains(v, "geojson"):
		return "GEOJSON", true
	}
	return "", false
}

func labelFor(format string) string {
	if format == "" {
		return "FILE"
	}
	if label, ok := serviceLabel(format); ok {
		return label
	}
	if idx := strings.LastIndexAny(format, "/+."); idx >= 0 && idx+1 < len(format) {
		return strings.ToUpper(format[idx+1:])
	}
	return strings.ToUpper(format)
}
