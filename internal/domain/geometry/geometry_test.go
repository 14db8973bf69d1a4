package geometry

import (
	"errors"
	"testing"

	"github.com/metadex-cloud/metadex/internal/domain"
	"github.com/metadex-cloud/metadex/internal/domain/criteria"
)

var europe = criteria.BoundingBox{NorthLat: 60, SouthLat: 35, EastLon: 30, WestLon: -10}

func TestParse(t *testing.T) {
	valid := []string{
		"POINT (10 45)",
		"LINESTRING (0 0, 10 10)",
		"POLYGON ((0 0, 10 0, 10 10, 0 10, 0 0))",
		"MULTIPOLYGON (((0 0, 10 0, 10 10, 0 10, 0 0)))",
	}
	for _, wkt := range valid {
		if _, err := Parse(wkt); err != nil {
			t.Errorf("Parse(%q): %v", wkt, err)
		}
	}

	for _, wkt := range []string{"", "POLYGON((broken", "NOPE (1 2)"} {
		_, err := Parse(wkt)
		if !errors.Is(err, domain.ErrMalformedGeometry) {
			t.Errorf("Parse(%q) err = %v, want ErrMalformedGeometry", wkt, err)
		}
	}
}

func TestFromBBoxRoundTrip(t *testing.T) {
	g, err := Parse(BBoxWKT(europe))
	if err != nil {
		t.Fatalf("rendered box must parse back: %v", err)
	}
	if !Intersects(g, FromBBox(europe)) {
		t.Error("a box must intersect itself")
	}
}

func TestIntersects(t *testing.T) {
	query := FromBBox(europe)

	tests := []struct {
		name string
		wkt  string
		want bool
	}{
		{"point inside", "POINT (10 45)", true},
		{"point outside", "POINT (100 45)", false},
		{"point on boundary", "POINT (-10 45)", true},
		{"line crossing", "LINESTRING (-20 50, 20 50)", true},
		{"line outside", "LINESTRING (-60 50, -40 50)", false},
		{"polygon overlapping", "POLYGON ((20 30, 40 30, 40 50, 20 50, 20 30))", true},
		{"polygon containing the box", "POLYGON ((-90 -80, 90 -80, 90 80, -90 80, -90 -80))", true},
		{"polygon inside the box", "POLYGON ((0 40, 5 40, 5 45, 0 45, 0 40))", true},
		{"polygon disjoint", "POLYGON ((-70 -50, -60 -50, -60 -40, -70 -40, -70 -50))", false},
		{"multipolygon one part inside", "MULTIPOLYGON (((0 40, 5 40, 5 45, 0 45, 0 40)), ((100 0, 110 0, 110 10, 100 10, 100 0)))", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Parse(tt.wkt)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := Intersects(query, g); got != tt.want {
				t.Errorf("Intersects = %v, want %v", got, tt.want)
			}
			// Intersection is symmetric.
			if got := Intersects(g, query); got != tt.want {
				t.Errorf("reversed Intersects = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIntersectsReflexive(t *testing.T) {
	for _, wkt := range []string{
		"POINT (10 45)",
		"LINESTRING (0 0, 10 10)",
		"POLYGON ((0 0, 10 0, 10 10, 0 10, 0 0))",
	} {
		g, err := Parse(wkt)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if !Intersects(g, g) {
			t.Errorf("%q must intersect itself", wkt)
		}
	}
}

func TestPolygonHole(t *testing.T) {
	donut, err := Parse("POLYGON ((0 0, 30 0, 30 30, 0 30, 0 0), (10 10, 20 10, 20 20, 10 20, 10 10))")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	inHole, _ := Parse("POINT (15 15)")
	inRing, _ := Parse("POINT (5 5)")

	if Intersects(donut, inHole) {
		t.Error("point inside the hole must not intersect")
	}
	if !Intersects(donut, inRing) {
		t.Error("point in the solid ring must intersect")
	}
}
