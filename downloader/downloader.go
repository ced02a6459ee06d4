package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/geoforge/s2fetch/common"
	"github.com/geoforge/s2fetch/interface/provider"
	"github.com/geoforge/s2fetch/interface/raster"
	"github.com/geoforge/s2fetch/service"
	"github.com/geoforge/s2fetch/service/log"
	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/geojson"
	"github.com/google/uuid"
)

// DownloadError is the error recorded when one item of a scene cannot be retrieved
type DownloadError struct {
	SourceID string
	Asset    string
	Err      error
}

func (e DownloadError) Error() string {
	return fmt.Sprintf("download %s of %s: %v", e.Asset, e.SourceID, e.Err)
}

func (e DownloadError) Unwrap() error { return e.Err }

// SceneResult is the outcome of the retrieval of one scene.
// A failure of one item does not prevent the other items of the scene from being retrieved.
type SceneResult struct {
	SourceID  string            `json:"scene_id"`
	Visual    common.ItemStatus `json:"visual"`
	Metadata  common.ItemStatus `json:"metadata"`
	Thumbnail common.ItemStatus `json:"thumbnail"`
	Message   string            `json:"message,omitempty"`

	// paths of the output files (empty when the item has no output)
	VisualFile    string `json:"-"`
	MetadataFile  string `json:"-"`
	ThumbnailFile string `json:"-"`
}

// Report aggregates the results of one retrieval run
type Report struct {
	Prefix  string        `json:"prefix"`
	Results []SceneResult `json:"scenes"`
	Done    int           `json:"done"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
}

func (r *Report) push(res SceneResult) {
	r.Results = append(r.Results, res)
	for _, s := range []common.ItemStatus{res.Visual, res.Metadata, res.Thumbnail} {
		switch s {
		case common.ItemStatusDONE:
			r.Done++
		case common.ItemStatusSKIPPED:
			r.Skipped++
		case common.ItemStatusFAILED:
			r.Failed++
		}
	}
}

// OutputFiles returns the paths of the output files of the run that exist on disk
func (r *Report) OutputFiles() []string {
	var files []string
	for _, res := range r.Results {
		for _, f := range []string{res.VisualFile, res.MetadataFile, res.ThumbnailFile} {
			if f == "" {
				continue
			}
			if _, err := os.Stat(f); err == nil {
				files = append(files, f)
			}
		}
	}
	return files
}

// Engine retrieves the visual raster and the metadata document of the scenes of a search result
type Engine struct {
	Raster    raster.Processor
	Documents []provider.DocumentProvider
	// Archive is an optional fallback used when a scene has no metadata url
	Archive *provider.ArchiveDocumentProvider
	// Thumbnails enables the retrieval of the scene thumbnails
	Thumbnails bool
}

// RetrieveAll processes the scenes strictly in the order of the slice.
// The clip polygon is expressed in WGS84 and reprojected into each scene's coordinate
// reference before clipping. A failing scene is recorded in the report and does not
// abort the remaining scenes. An error is only returned when the run cannot start at all.
func (e *Engine) RetrieveAll(ctx context.Context, scenes []common.SceneRecord, prefix, outDir, tempDir string, clipPolygon geom.Polygon) (Report, error) {
	report := Report{Prefix: prefix}

	// scratch dir for the cutlines of this run
	workDir := filepath.Join(tempDir, uuid.New().String())
	if err := service.MkdirAllIdempotent(workDir); err != nil {
		return report, fmt.Errorf("RetrieveAll.%w", err)
	}
	defer os.RemoveAll(workDir)

	cutline := filepath.Join(workDir, "cutline.geojson")
	if err := writeGeoJSON(clipPolygon, cutline); err != nil {
		return report, fmt.Errorf("RetrieveAll.%w", err)
	}

	// the scenes of a run share a handful of UTM zones
	cutlines := map[int]string{}

	for i, scene := range scenes {
		res := e.retrieveScene(ctx, scene, prefix, outDir, tempDir, workDir, cutline, cutlines)
		report.push(res)
		log.Logger(ctx).Sugar().Infof("downloaded %d of %d scenes", i+1, len(scenes))
	}

	return report, nil
}

func (e *Engine) retrieveScene(ctx context.Context, scene common.SceneRecord, prefix, outDir, tempDir, workDir, cutline string, cutlines map[int]string) SceneResult {
	ctx = log.With(ctx, "scene", scene.SourceID)
	res := SceneResult{SourceID: scene.SourceID}

	if scene.SourceID == "" {
		res.Visual, res.Metadata, res.Thumbnail = common.ItemStatusFAILED, common.ItemStatusFAILED, common.ItemStatusFAILED
		res.Message = "scene without id"
		return res
	}

	res.Visual, res.VisualFile = e.retrieveVisual(ctx, scene, prefix, outDir, tempDir, workDir, cutline, cutlines, &res)
	res.Metadata, res.MetadataFile = e.retrieveDocument(ctx, scene.SourceID, scene.MetadataURL, common.SuffixMetadata, prefix, outDir, &res)
	if e.Thumbnails {
		res.Thumbnail, res.ThumbnailFile = e.retrieveDocument(ctx, scene.SourceID, scene.ThumbnailURL, common.SuffixThumbnail, prefix, outDir, &res)
	} else {
		res.Thumbnail = common.ItemStatusSKIPPED
	}
	return res
}

// retrieveVisual downloads and clips the visual raster of the scene
func (e *Engine) retrieveVisual(ctx context.Context, scene common.SceneRecord, prefix, outDir, tempDir, workDir, cutline string, cutlines map[int]string, res *SceneResult) (common.ItemStatus, string) {
	if scene.VisualURL == "" {
		log.Logger(ctx).Sugar().Warnf("visual of %s is not available", scene.SourceID)
		return common.ItemStatusMISSING, ""
	}

	outFile := filepath.Join(outDir, common.FileName(prefix, scene.SourceID, common.SuffixVisual, scene.VisualURL))
	if _, err := os.Stat(outFile); err == nil {
		log.Logger(ctx).Sugar().Infof("visual of %s already exists at %s", scene.SourceID, outFile)
		return common.ItemStatusSKIPPED, outFile
	}

	if err := e.clipVisual(ctx, scene, outFile, tempDir, workDir, cutline, cutlines); err != nil {
		err = DownloadError{SourceID: scene.SourceID, Asset: common.SuffixVisual, Err: err}
		log.Logger(ctx).Sugar().Warnf("%v", err)
		res.Message = err.Error()
		os.Remove(outFile)
		return common.ItemStatusFAILED, ""
	}
	log.Logger(ctx).Sugar().Infof("saved visual of %s in %s", scene.SourceID, outFile)
	return common.ItemStatusDONE, outFile
}

func (e *Engine) clipVisual(ctx context.Context, scene common.SceneRecord, outFile, tempDir, workDir, cutline string, cutlines map[int]string) error {
	// reproject the clip polygon into the scene coordinate reference
	sceneCutline := cutline
	if scene.EPSG != 0 {
		var err error
		if sceneCutline, err = e.sceneCutline(ctx, scene.EPSG, workDir, cutline, cutlines); err != nil {
			return fmt.Errorf("clipVisual.%w", err)
		}
	} else {
		log.Logger(ctx).Sugar().Warnf("no epsg code for %s: clipping with the WGS84 polygon", scene.SourceID)
	}

	// stream the remote raster into a local scratch vrt, then clip
	vrtFile := filepath.Join(tempDir, common.VRTName(scene.SourceID))
	if err := e.Raster.OpenRemote(ctx, scene.VisualURL, vrtFile); err != nil {
		return fmt.Errorf("clipVisual.OpenRemote: %w", err)
	}
	if err := e.Raster.Clip(ctx, vrtFile, sceneCutline, outFile); err != nil {
		return fmt.Errorf("clipVisual.Clip: %w", err)
	}
	return nil
}

// sceneCutline returns the cutline reprojected in the given epsg, reusing an already reprojected one
func (e *Engine) sceneCutline(ctx context.Context, epsg int, workDir, cutline string, cutlines map[int]string) (string, error) {
	if f, ok := cutlines[epsg]; ok {
		return f, nil
	}
	f := filepath.Join(workDir, fmt.Sprintf("cutline_%d.geojson", epsg))
	if err := e.Raster.Reproject(ctx, cutline, f, epsg); err != nil {
		return "", fmt.Errorf("sceneCutline.Reproject[EPSG:%d]: %w", epsg, err)
	}
	cutlines[epsg] = f
	return f, nil
}

// retrieveDocument downloads a metadata or thumbnail document verbatim
func (e *Engine) retrieveDocument(ctx context.Context, sceneID, url, suffix, prefix, outDir string, res *SceneResult) (common.ItemStatus, string) {
	if url == "" {
		if suffix == common.SuffixMetadata && e.Archive != nil {
			return e.retrieveArchiveMetadata(ctx, sceneID, prefix, outDir, res)
		}
		log.Logger(ctx).Sugar().Warnf("%s of %s is not available", suffix, sceneID)
		return common.ItemStatusMISSING, ""
	}

	outFile := filepath.Join(outDir, common.FileName(prefix, sceneID, suffix, url))
	if _, err := os.Stat(outFile); err == nil {
		log.Logger(ctx).Sugar().Infof("%s of %s already exists at %s", suffix, sceneID, outFile)
		return common.ItemStatusSKIPPED, outFile
	}

	if err := provider.Fetch(ctx, e.Documents, url, outFile); err != nil {
		err = DownloadError{SourceID: sceneID, Asset: suffix, Err: err}
		log.Logger(ctx).Sugar().Warnf("%v", err)
		res.Message = err.Error()
		return common.ItemStatusFAILED, ""
	}
	log.Logger(ctx).Sugar().Infof("saved %s of %s in %s", suffix, sceneID, outFile)
	return common.ItemStatusDONE, outFile
}

// retrieveArchiveMetadata extracts the metadata from the product archive
func (e *Engine) retrieveArchiveMetadata(ctx context.Context, sceneID, prefix, outDir string, res *SceneResult) (common.ItemStatus, string) {
	outFile := filepath.Join(outDir, common.FileName(prefix, sceneID, common.SuffixMetadata, "MTD.xml"))
	if _, err := os.Stat(outFile); err == nil {
		return common.ItemStatusSKIPPED, outFile
	}
	if err := e.Archive.FetchMetadata(ctx, sceneID, outFile); err != nil {
		err = DownloadError{SourceID: sceneID, Asset: common.SuffixMetadata, Err: err}
		log.Logger(ctx).Sugar().Warnf("%v", err)
		res.Message = err.Error()
		return common.ItemStatusFAILED, ""
	}
	log.Logger(ctx).Sugar().Infof("saved %s of %s in %s (from archive)", common.SuffixMetadata, sceneID, outFile)
	return common.ItemStatusDONE, outFile
}

func writeGeoJSON(g geom.Geometry, file string) error {
	data, err := json.Marshal(geojson.Geometry{Geometry: g})
	if err != nil {
		return fmt.Errorf("writeGeoJSON.Marshal: %w", err)
	}
	if err := os.WriteFile(file, data, 0644); err != nil {
		return fmt.Errorf("writeGeoJSON.WriteFile: %w", err)
	}
	return nil
}
