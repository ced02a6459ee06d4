package fetcher

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/geoforge/s2fetch/fetcher/entities"
	"github.com/geoforge/s2fetch/service"
	"github.com/geoforge/s2fetch/service/geometry"
	"github.com/geoforge/s2fetch/service/log"
	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/geojson"
)

// AOIProvider yields the areas of interest of a fetch, in order.
// It is the boundary with whatever designates the areas (a map extent, a feature layer, a request).
type AOIProvider interface {
	Areas(ctx context.Context) ([]entities.AreaOfInterest, error)
}

// ExtentAOI is an AOIProvider for a single bounding box (e.g. the visible extent of a map view),
// with a single output prefix
type ExtentAOI struct {
	Prefix string
	BBox   string // WGS84 "xmin,ymin,xmax,ymax"
}

// Areas implements AOIProvider
func (p ExtentAOI) Areas(ctx context.Context) ([]entities.AreaOfInterest, error) {
	coords := strings.Split(p.BBox, ",")
	if len(coords) != 4 {
		return nil, fmt.Errorf("ExtentAOI: expecting xmin,ymin,xmax,ymax, got %q", p.BBox)
	}
	v := make([]float64, 4)
	for i, c := range coords {
		var err error
		if v[i], err = strconv.ParseFloat(strings.TrimSpace(c), 64); err != nil {
			return nil, fmt.Errorf("ExtentAOI[%s]: %w", p.BBox, err)
		}
	}
	poly := geom.Polygon{{{v[0], v[1]}, {v[0], v[3]}, {v[2], v[3]}, {v[2], v[1]}, {v[0], v[1]}}}
	return []entities.AreaOfInterest{{Prefix: p.Prefix, Geometry: poly}}, nil
}

// FeatureLayerAOI is an AOIProvider iterating over the polygon features of a geojson layer.
// The output prefix of each feature is read from the PrefixField property.
type FeatureLayerAOI struct {
	Path        string
	PrefixField string
}

// Areas implements AOIProvider
func (p FeatureLayerAOI) Areas(ctx context.Context) ([]entities.AreaOfInterest, error) {
	fc, err := service.LoadFeatureCollection(p.Path)
	if err != nil {
		return nil, fmt.Errorf("FeatureLayerAOI.%w", err)
	}
	areas, err := featureAreas(ctx, fc, p.PrefixField)
	if err != nil {
		return nil, fmt.Errorf("FeatureLayerAOI.%w", err)
	}
	return areas, nil
}

// requestGeometryAOI yields the geometry of a FetchRequest with its single prefix
type requestGeometryAOI struct {
	prefix   string
	geometry geom.Geometry
}

// Areas implements AOIProvider
func (p requestGeometryAOI) Areas(ctx context.Context) ([]entities.AreaOfInterest, error) {
	if err := geometry.Validate(p.geometry); err != nil {
		return nil, fmt.Errorf("requestGeometryAOI.%w", err)
	}
	return []entities.AreaOfInterest{{Prefix: p.prefix, Geometry: p.geometry}}, nil
}

// requestFeaturesAOI yields the features of a FetchRequest aoi with per-feature prefixes
type requestFeaturesAOI struct {
	request entities.FetchRequest
}

// Areas implements AOIProvider
func (p requestFeaturesAOI) Areas(ctx context.Context) ([]entities.AreaOfInterest, error) {
	fc, err := service.UnmarshalFeatureCollection(p.request.AOI)
	if err != nil {
		return nil, fmt.Errorf("requestFeaturesAOI: %w", err)
	}
	areas, err := featureAreas(ctx, fc, p.request.PrefixField)
	if err != nil {
		return nil, fmt.Errorf("requestFeaturesAOI.%w", err)
	}
	return areas, nil
}

func featureAreas(ctx context.Context, fc geojson.FeatureCollection, prefixField string) ([]entities.AreaOfInterest, error) {
	var areas []entities.AreaOfInterest
	for i, f := range fc.Features {
		prefix, ok := f.Properties[prefixField].(string)
		if !ok || prefix == "" {
			return nil, fmt.Errorf("featureAreas: feature %d has no %q property", i, prefixField)
		}
		g := f.Geometry.Geometry
		if err := geometry.Validate(g); err != nil {
			log.Logger(ctx).Sugar().Warnf("featureAreas: skipping feature %s: %v", prefix, err)
			continue
		}
		areas = append(areas, entities.AreaOfInterest{Prefix: prefix, Geometry: g})
	}
	if len(areas) == 0 {
		return nil, fmt.Errorf("featureAreas: no usable polygon feature")
	}
	return areas, nil
}
