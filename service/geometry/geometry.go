package geometry

import (
	"fmt"

	"github.com/go-spatial/geom"
	geomwkt "github.com/go-spatial/geom/encoding/wkt"
	"github.com/paulsmith/gogeos/geos"
)

// metersPerDegree is the fixed conversion used to turn a metric buffer distance
// into a degree offset (100 km = 1 degree). This is an approximation that gets
// worse away from the equator, kept isolated here so it can be replaced by a
// geodesic buffer without touching the callers.
const metersPerDegree = 100000.

// BufferDegrees converts a metric buffer distance to degrees
func BufferDegrees(bufferMeters float64) float64 {
	return bufferMeters / metersPerDegree
}

// BufferExtent expands the WGS84 extent of g by bufferMeters on each side and returns
// the buffered bounding-box string "xmin,ymin,xmax,ymax" and the corresponding closed
// rectangular polygon. g is expected in WGS84 (EPSG:4326).
func BufferExtent(g geom.Geometry, bufferMeters float64) (string, geom.Polygon, error) {
	ext, err := geom.NewExtentFromGeometry(g)
	if err != nil {
		return "", nil, fmt.Errorf("BufferExtent.NewExtentFromGeometry: %w", err)
	}

	d := BufferDegrees(bufferMeters)
	xMin, yMin, xMax, yMax := ext.MinX()-d, ext.MinY()-d, ext.MaxX()+d, ext.MaxY()+d

	bbox := fmt.Sprintf("%g,%g,%g,%g", xMin, yMin, xMax, yMax)
	poly := geom.Polygon{{
		{xMin, yMin},
		{xMin, yMax},
		{xMax, yMax},
		{xMax, yMin},
		{xMin, yMin},
	}}
	return bbox, poly, nil
}

// GeomToGeos converts a geom.Geometry to a geos.Geometry
func GeomToGeos(g geom.Geometry) (*geos.Geometry, error) {
	wkt, err := geomwkt.EncodeString(g)
	if err != nil {
		return nil, fmt.Errorf("GeomToGeos.EncodeString: %w", err)
	}
	geometry, err := geos.FromWKT(wkt)
	if err != nil {
		return nil, fmt.Errorf("GeomToGeos.FromWKT: %w", err)
	}
	return geometry, nil
}

// Generates a geom.Geometry from a geos.Geometry
func GeosToGeom(g *geos.Geometry) (geom.Geometry, error) {
	wkt, err := g.ToWKT()
	if err != nil {
		return nil, fmt.Errorf("GeosToGeom.ToWKT: %w", err)
	}
	geometry, err := geomwkt.DecodeString(wkt)
	if err != nil {
		return nil, fmt.Errorf("GeosToGeom.DecodeString: %w", err)
	}
	return geometry, nil
}

// Validate returns an error if g is empty or not a valid polygonal geometry
func Validate(g geom.Geometry) error {
	geosG, err := GeomToGeos(g)
	if err != nil {
		return fmt.Errorf("Validate.%w", err)
	}
	valid, err := geosG.IsValid()
	if err != nil {
		return fmt.Errorf("Validate.IsValid: %w", err)
	}
	if !valid {
		return fmt.Errorf("Validate: invalid geometry")
	}
	area, err := geosG.Area()
	if err != nil {
		return fmt.Errorf("Validate.Area: %w", err)
	}
	if area == 0 {
		return fmt.Errorf("Validate: empty geometry")
	}
	return nil
}

// BBoxPolygon creates the rectangular geos polygon of a [xmin,ymin,xmax,ymax] bounding box
func BBoxPolygon(bbox []float64) (*geos.Geometry, error) {
	if len(bbox) != 4 {
		return nil, fmt.Errorf("BBoxPolygon: expecting 4 coordinates, got %d", len(bbox))
	}
	return geos.NewPolygon([]geos.Coord{
		geos.NewCoord(bbox[0], bbox[1]),
		geos.NewCoord(bbox[0], bbox[3]),
		geos.NewCoord(bbox[2], bbox[3]),
		geos.NewCoord(bbox[2], bbox[1]),
		geos.NewCoord(bbox[0], bbox[1]),
	})
}
