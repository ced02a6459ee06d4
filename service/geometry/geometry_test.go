package geometry

import (
	"testing"

	"github.com/go-spatial/geom"
)

func TestBufferDegrees(t *testing.T) {
	if d := BufferDegrees(100000); d != 1 {
		t.Errorf("expected 1 degree for 100km, got %g", d)
	}
	if d := BufferDegrees(250); d != 0.0025 {
		t.Errorf("expected 0.0025 degree for 250m, got %g", d)
	}
	if d := BufferDegrees(0); d != 0 {
		t.Errorf("expected 0 degree, got %g", d)
	}
}

func TestBufferExtent(t *testing.T) {
	poly := geom.Polygon{{{2, 48}, {2, 49}, {3, 49}, {3, 48}, {2, 48}}}

	bbox, clip, err := BufferExtent(poly, 100000)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if bbox != "1,47,4,50" {
		t.Errorf("expected bbox 1,47,4,50, got %s", bbox)
	}
	ring := clip.LinearRings()[0]
	if len(ring) != 5 {
		t.Fatalf("expected a closed 5-point ring, got %d points", len(ring))
	}
	if ring[0] != ring[4] {
		t.Errorf("ring is not closed: %v != %v", ring[0], ring[4])
	}
	expected := [][2]float64{{1, 47}, {1, 50}, {4, 50}, {4, 47}, {1, 47}}
	for i, pt := range ring {
		if pt != expected[i] {
			t.Errorf("point %d: expected %v, got %v", i, expected[i], pt)
		}
	}
}

func TestBufferExtentZeroBuffer(t *testing.T) {
	poly := geom.Polygon{{{2, 48}, {2, 49}, {3, 49}, {3, 48}, {2, 48}}}
	bbox, _, err := BufferExtent(poly, 0)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if bbox != "2,48,3,49" {
		t.Errorf("expected the unbuffered extent 2,48,3,49, got %s", bbox)
	}
}

func TestValidate(t *testing.T) {
	poly := geom.Polygon{{{2, 48}, {2, 49}, {3, 49}, {3, 48}, {2, 48}}}
	if err := Validate(poly); err != nil {
		t.Errorf("err: %v", err)
	}
	// zero-area polygon
	flat := geom.Polygon{{{2, 48}, {2, 48}, {2, 48}, {2, 48}}}
	if err := Validate(flat); err == nil {
		t.Errorf("expected an error for a zero-area polygon")
	}
}

func TestGeosRoundTrip(t *testing.T) {
	poly := geom.Polygon{{{2, 48}, {2, 49}, {3, 49}, {3, 48}, {2, 48}}}
	g, err := GeomToGeos(poly)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	back, err := GeosToGeom(g)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	ext, err := geom.NewExtentFromGeometry(back)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if ext.MinX() != 2 || ext.MinY() != 48 || ext.MaxX() != 3 || ext.MaxY() != 49 {
		t.Errorf("unexpected extent after round trip: %v", ext)
	}
}

func TestBBoxPolygon(t *testing.T) {
	if _, err := BBoxPolygon([]float64{1, 2, 3}); err == nil {
		t.Errorf("expected an error for 3 coordinates")
	}
	g, err := BBoxPolygon([]float64{1, 47, 4, 50})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	area, err := g.Area()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if area != 9 {
		t.Errorf("expected an area of 9, got %g", area)
	}
}
