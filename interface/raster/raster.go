package raster

import "context"

// Processor abstracts the raster toolchain: open a remote dataset, reproject a
// cutline and clip a raster. Implementations are expected to block until the
// operation completes.
type Processor interface {
	// OpenRemote opens the raster at url as a streamed dataset and converts it to a local VRT
	OpenRemote(ctx context.Context, url, vrtFile string) error
	// Reproject rewrites the src geojson geometry file in the given EPSG coordinate reference
	Reproject(ctx context.Context, src, dst string, epsg int) error
	// Clip clips srcFile to the cutline polygon and writes the result to outFile
	Clip(ctx context.Context, srcFile, cutlineFile, outFile string) error
}
