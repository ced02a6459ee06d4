package fetcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/geoforge/s2fetch/common"
	"github.com/geoforge/s2fetch/downloader"
	"github.com/geoforge/s2fetch/fetcher/entities"
	"github.com/geoforge/s2fetch/interface/catalog"
	"github.com/geoforge/s2fetch/interface/catalog/earthsearch"
	"github.com/geoforge/s2fetch/service"
	"github.com/geoforge/s2fetch/service/geometry"
	"github.com/geoforge/s2fetch/service/log"
	"github.com/go-spatial/geom"
	"github.com/mholt/archiver"
)

// TempDirName is the scratch directory created under the output directory
const TempDirName = "temp"

// FetchParams are the user parameters shared by all the areas of a fetch
type FetchParams struct {
	StartTime    time.Time
	EndTime      time.Time
	BufferMeters float64
	OutputDir    string
	Collections  []string
	// ArchiveOutputs zips the output files of each prefix
	ArchiveOutputs bool
}

// Fetcher drives the buffer > search > retrieve pipeline
type Fetcher struct {
	Catalog catalog.ScenesProvider
	Engine  *downloader.Engine
	// Collections searched in the catalog (defaults to the Sentinel-2 L2A collection)
	Collections []string
}

func (f *Fetcher) collections() []string {
	if len(f.Collections) != 0 {
		return f.Collections
	}
	return []string{earthsearch.CollectionSentinel2L2A}
}

// FetchAll processes the areas of the provider sequentially.
// A failing area is logged and reported, it does not stop the following areas.
func (f *Fetcher) FetchAll(ctx context.Context, aoi AOIProvider, params FetchParams) ([]downloader.Report, error) {
	areas, err := aoi.Areas(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchAll.%w", err)
	}

	tempDir := filepath.Join(params.OutputDir, TempDirName)
	if err := service.MkdirAllIdempotent(params.OutputDir, tempDir); err != nil {
		return nil, fmt.Errorf("FetchAll.%w", err)
	}

	var reports []downloader.Report
	for _, area := range areas {
		log.Logger(ctx).Sugar().Infof("processing prefix %s", area.Prefix)
		report, err := f.FetchArea(ctx, area, params)
		if err != nil {
			log.Logger(ctx).Sugar().Errorf("prefix %s: %v", area.Prefix, err)
			report = downloader.Report{Prefix: area.Prefix}
		}
		reports = append(reports, report)
		log.Logger(ctx).Sugar().Infof("completed prefix %s: %d done, %d skipped, %d failed", area.Prefix, report.Done, report.Skipped, report.Failed)
	}
	return reports, nil
}

// FetchArea searches the catalog for the buffered area and retrieves the matching scenes
func (f *Fetcher) FetchArea(ctx context.Context, area entities.AreaOfInterest, params FetchParams) (downloader.Report, error) {
	bbox, clipPolygon, err := geometry.BufferExtent(area.Geometry, params.BufferMeters)
	if err != nil {
		return downloader.Report{}, fmt.Errorf("FetchArea.%w", err)
	}

	collections := params.Collections
	if len(collections) == 0 {
		collections = f.collections()
	}
	scenes, err := f.Catalog.SearchScenes(ctx, entities.SearchArea{
		BBox:        bbox,
		StartTime:   params.StartTime,
		EndTime:     params.EndTime,
		Collections: collections,
	})
	if err != nil {
		return downloader.Report{}, fmt.Errorf("FetchArea.%w", err)
	}

	if scenes, err = removeOutsideArea(scenes, clipPolygon); err != nil {
		return downloader.Report{}, fmt.Errorf("FetchArea.%w", err)
	}

	tempDir := filepath.Join(params.OutputDir, TempDirName)
	report, err := f.Engine.RetrieveAll(ctx, scenes, area.Prefix, params.OutputDir, tempDir, clipPolygon)
	if err != nil {
		return report, fmt.Errorf("FetchArea.%w", err)
	}

	if params.ArchiveOutputs {
		if err := archiveOutputs(ctx, &report, params.OutputDir); err != nil {
			log.Logger(ctx).Sugar().Warnf("FetchArea: %v", err)
		}
	}
	return report, nil
}

// removeOutsideArea removes the scenes whose footprint does not intersect the clip polygon.
// The catalog search works on the bounding box of the area and can then return scenes
// that only touch the box.
func removeOutsideArea(scenes []common.SceneRecord, clip geom.Polygon) ([]common.SceneRecord, error) {
	gclip, err := geometry.GeomToGeos(clip)
	if err != nil {
		return nil, fmt.Errorf("removeOutsideArea.%w", err)
	}
	pclip := gclip.Prepare()

	j := 0
	for i, scene := range scenes {
		// scenes without a footprint are kept
		if len(scene.BBox) != 4 {
			scenes[j] = scenes[i]
			j++
			continue
		}
		footprint, err := geometry.BBoxPolygon(scene.BBox)
		if err != nil {
			return nil, fmt.Errorf("removeOutsideArea.%w", err)
		}
		intersects, err := pclip.Intersects(footprint)
		if err != nil {
			return nil, fmt.Errorf("removeOutsideArea.Intersects: %w", err)
		}
		if intersects {
			scenes[j] = scenes[i]
			j++
		}
	}
	runtime.KeepAlive(gclip)

	return scenes[:j], nil
}

// archiveOutputs zips the output files of the run into <outputDir>/<prefix>.zip
func archiveOutputs(ctx context.Context, report *downloader.Report, outputDir string) error {
	files := report.OutputFiles()
	if len(files) == 0 {
		return nil
	}
	zipFile := filepath.Join(outputDir, report.Prefix+".zip")
	os.Remove(zipFile)
	if err := archiver.Archive(files, zipFile); err != nil {
		return fmt.Errorf("archiveOutputs[%s]: %w", zipFile, err)
	}
	log.Logger(ctx).Sugar().Infof("archived %d files in %s", len(files), zipFile)
	return nil
}
