// Package geometry parses WKT text and tests spatial intersection for the
// bounding-box filter. Geometries are ephemeral: parsed per filter invocation
// and never cached across requests.
package geometry

import (
	"fmt"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
	"github.com/twpayne/go-geom/xy"

	"github.com/metadex-cloud/metadex/internal/domain"
	"github.com/metadex-cloud/metadex/internal/domain/criteria"
)

// Parse decodes WKT text into a geometry. A geometry that cannot be parsed
// yields domain.ErrMalformedGeometry; callers treat it as a per-item skip.
func Parse(text string) (geom.T, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty WKT", domain.ErrMalformedGeometry)
	}
	g, err := wkt.Unmarshal(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedGeometry, err)
	}
	return g, nil
}

// FromBBox builds the query polygon for a bounding box, using the same corner
// order as the WKT the catalog stores.
func FromBBox(b criteria.BoundingBox) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{b.WestLon, b.SouthLat},
		{b.EastLon, b.SouthLat},
		{b.EastLon, b.NorthLat},
		{b.WestLon, b.NorthLat},
		{b.WestLon, b.SouthLat},
	}})
}

// BBoxWKT renders a bounding box as WKT, mirroring the store's location
// encoding.
func BBoxWKT(b criteria.BoundingBox) string {
	p, err := wkt.Marshal(FromBBox(b))
	if err != nil {
		return ""
	}
	return p
}

// Intersects reports whether two geometries share at least one point.
// Identical geometries always intersect. Supported types are Point,
// LineString, Polygon and their Multi variants.
func Intersects(a, b geom.T) bool {
	if a == nil || b == nil {
		return false
	}
	if !a.Bounds().Overlaps(geom.XY, b.Bounds()) {
		return false
	}
	for _, pa := range parts(a) {
		for _, pb := range parts(b) {
			if partsIntersect(pa, pb) {
				return true
			}
		}
	}
	return false
}

// part is a single point, linestring, or polygon in XY coordinates.
type part struct {
	// rings[0] is the shell for polygons; lines/points use coords.
	coords []geom.Coord
	rings  [][]geom.Coord
	kind   partKind
}

type partKind int

const (
	pointPart partKind = iota
	linePart
	polygonPart
)

func parts(g geom.T) []part {
	switch t := g.(type) {
	case *geom.Point:
		return []part{{kind: pointPart, coords: []geom.Coord{t.Coords()}}}
	case *geom.MultiPoint:
		out := make([]part, 0, t.NumPoints())
		for _, c := range t.Coords() {
			out = append(out, part{kind: pointPart, coords: []geom.Coord{c}})
		}
		return out
	case *geom.LineString:
		return []part{{kind: linePart, coords: t.Coords()}}
	case *geom.MultiLineString:
		out := make([]part, 0, t.NumLineStrings())
		for _, cs := range t.Coords() {
			out = append(out, part{kind: linePart, coords: cs})
		}
		return out
	case *geom.Polygon:
		return []part{{kind: polygonPart, rings: t.Coords()}}
	case *geom.MultiPolygon:
		out := make([]part, 0, t.NumPolygons())
		for _, rings := range t.Coords() {
			out = append(out, part{kind: polygonPart, rings: rings})
		}
		return out
	case *geom.GeometryCollection:
		var out []part
		for _, sub := range t.Geoms() {
			out = append(out, parts(sub)...)
		}
		return out
	default:
		return nil
	}
}

func partsIntersect(a, b part) bool {
	if a.kind > b.kind {
		a, b = b, a
	}
	switch {
	case a.kind == pointPart && b.kind == pointPart:
		return samePoint(a.coords[0], b.coords[0])
	case a.kind == pointPart && b.kind == linePart:
		return pointOnLine(a.coords[0], b.coords)
	case a.kind == pointPart && b.kind == polygonPart:
		return pointInPolygon(a.coords[0], b.rings)
	case a.kind == linePart && b.kind == linePart:
		return linesCross(a.coords, b.coords)
	case a.kind == linePart && b.kind == polygonPart:
		return lineMeetsPolygon(a.coords, b.rings)
	default:
		return polygonsMeet(a.rings, b.rings)
	}
}

func samePoint(a, b geom.Coord) bool {
	return a.X() == b.X() && a.Y() == b.Y()
}

func pointOnLine(p geom.Coord, line []geom.Coord) bool {
	for i := 0; i+1 < len(line); i++ {
		if onSegment(line[i], line[i+1], p) {
			return true
		}
	}
	return false
}

// pointInPolygon tests the shell and excludes holes. Boundary points count as
// inside.
func pointInPolygon(p geom.Coord, rings [][]geom.Coord) bool {
	if len(rings) == 0 {
		return false
	}
	if pointOnLine(p, rings[0]) {
		return true
	}
	if !xy.IsPointInRing(geom.XY, p, flatten(rings[0])) {
		return false
	}
	for _, hole := range rings[1:] {
		if xy.IsPointInRing(geom.XY, p, flatten(hole)) && !pointOnLine(p, hole) {
			return false
		}
	}
	return true
}

func linesCross(a, b []geom.Coord) bool {
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if segmentsIntersect(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	return false
}

func lineMeetsPolygon(line []geom.Coord, rings [][]geom.Coord) bool {
	for _, p := range line {
		if pointInPolygon(p, rings) {
			return true
		}
	}
	for _, ring := range rings {
		if linesCross(line, ring) {
			return true
		}
	}
	return false
}

func polygonsMeet(a, b [][]geom.Coord) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for _, p := range a[0] {
		if pointInPolygon(p, b) {
			return true
		}
	}
	for _, p := range b[0] {
		if pointInPolygon(p, a) {
			return true
		}
	}
	return linesCross(a[0], b[0])
}

func flatten(ring []geom.Coord) []float64 {
	flat := make([]float64, 0, len(ring)*2)
	for _, c := range ring {
		flat = append(flat, c.X(), c.Y())
	}
	return flat
}

// segmentsIntersect uses orientation tests, counting shared endpoints and
// collinear overlap as intersection.
func segmentsIntersect(p1, p2, q1, q2 geom.Coord) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(q1, q2, p1):
		return true
	case d2 == 0 && onSegment(q1, q2, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, q1):
		return true
	case d4 == 0 && onSegment(p1, p2, q2):
		return true
	}
	return false
}

func cross(a, b, c geom.Coord) float64 {
	return (b.X()-a.X())*(c.Y()-a.Y()) - (b.Y()-a.Y())*(c.X()-a.X())
}

func onSegment(a, b, p geom.Coord) bool {
	if cross(a, b, p) != 0 {
		return false
	}
	return min(a.X(), b.X()) <= p.X() && p.X() <= max(a.X(), b.X()) &&
		min(a.Y(), b.Y()) <= p.Y() && p.Y() <= max(a.Y(), b.Y())
}
