package catalog

import (
	"context"

	"github.com/geoforge/s2fetch/common"
	"github.com/geoforge/s2fetch/fetcher/entities"
)

// ScenesProvider searches a catalog for the scenes intersecting an area within a date range.
// The records are returned in the catalog order (ascending acquisition time).
type ScenesProvider interface {
	SearchScenes(ctx context.Context, area entities.SearchArea) ([]common.SceneRecord, error)
}
