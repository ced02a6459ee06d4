package entities

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-spatial/geom"
)

// AreaOfInterest is one unit of work of a fetch: an output-file prefix and
// the polygon to search and clip with. The geometry is expressed in WGS84.
type AreaOfInterest struct {
	Prefix   string
	Geometry geom.Geometry
}

// SearchArea is the input of a catalog search
type SearchArea struct {
	BBox        string // WGS84 bounding box "xmin,ymin,xmax,ymax"
	StartTime   time.Time
	EndTime     time.Time
	Collections []string
}

// FetchRequest is the payload of the fetch handler
type FetchRequest struct {
	StartTime    time.Time       `json:"start_time"`
	EndTime      time.Time       `json:"end_time"`
	BufferMeters float64         `json:"buffer"`
	Prefix       string          `json:"prefix"`
	PrefixField  string          `json:"prefix_field"`
	AOI          json.RawMessage `json:"aoi"`
	OutputDir    string          `json:"output_dir"`
}

// Validate checks the required fields of the request
func (r FetchRequest) Validate() error {
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return fmt.Errorf("start_time and end_time are required")
	}
	if r.EndTime.Before(r.StartTime) {
		return fmt.Errorf("end_time is before start_time")
	}
	if r.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if len(r.AOI) == 0 {
		return fmt.Errorf("aoi is required")
	}
	if r.Prefix == "" && r.PrefixField == "" {
		return fmt.Errorf("either prefix or prefix_field is required")
	}
	return nil
}
