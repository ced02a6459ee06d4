package common

import "time"

// SceneRecord holds the metadata of one catalog item matched by a search.
// It is immutable after creation and only lives for the duration of one
// search-and-download cycle.
type SceneRecord struct {
	SourceID     string    `json:"scene_id"`
	Date         time.Time `json:"scene_datetime"`
	ProductURI   string    `json:"scene_uri"`
	ThumbnailURL string    `json:"thumbnail_url"`
	VisualURL    string    `json:"visual_asset_url"`
	MetadataURL  string    `json:"metadata_url"`
	CloudCover   float64   `json:"cloud_cover"`
	EPSG         int       `json:"epsg_code"`
	BBox         []float64 `json:"bbox"`
}
