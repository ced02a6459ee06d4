package raster

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/geoforge/s2fetch/service/log"
	"go.uber.org/zap/zapcore"
)

// GDAL implements Processor with the gdal command line tools
type GDAL struct {
	TranslatePath string
	WarpPath      string
	Ogr2OgrPath   string
}

// NewGDAL creates a Processor using the gdal binaries found in the PATH
func NewGDAL() *GDAL {
	return &GDAL{
		TranslatePath: "gdal_translate",
		WarpPath:      "gdalwarp",
		Ogr2OgrPath:   "ogr2ogr",
	}
}

// VSIPath maps a remote url to the gdal virtual file system path
func VSIPath(url string) string {
	switch {
	case strings.HasPrefix(url, "/vsi"):
		return url
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return "/vsicurl/" + url
	case strings.HasPrefix(url, "s3://"):
		return "/vsis3/" + strings.TrimPrefix(url, "s3://")
	case strings.HasPrefix(url, "gs://"):
		return "/vsigs/" + strings.TrimPrefix(url, "gs://")
	}
	return url
}

// OpenRemote implements Processor
func (g *GDAL) OpenRemote(ctx context.Context, url, vrtFile string) error {
	return g.run(ctx, exec.Command(g.TranslatePath, "-of", "VRT", VSIPath(url), vrtFile))
}

// Reproject implements Processor
func (g *GDAL) Reproject(ctx context.Context, src, dst string, epsg int) error {
	return g.run(ctx, exec.Command(g.Ogr2OgrPath, "-f", "GeoJSON", "-t_srs", fmt.Sprintf("EPSG:%d", epsg), dst, src))
}

// Clip implements Processor
func (g *GDAL) Clip(ctx context.Context, srcFile, cutlineFile, outFile string) error {
	return g.run(ctx, exec.Command(g.WarpPath, "-cutline", cutlineFile, "-crop_to_cutline", "-overwrite", srcFile, outFile))
}

func (g *GDAL) run(ctx context.Context, cmd *exec.Cmd) error {
	filter := &gdalLogFilter{}
	log.Logger(ctx).Sugar().Debug(cmdToString(cmd))
	if err := log.Exec(ctx, cmd, log.StdoutLevel(zapcore.DebugLevel), log.StdoutFilter(filter), log.StderrFilter(filter)); err != nil {
		return fmt.Errorf("run[%s]: %w", cmdToString(cmd), filter.WrapError(err))
	}
	return nil
}

func cmdToString(cmd *exec.Cmd) string {
	return strings.Join(cmd.Args, " ")
}

// gdalLogFilter reclassifies the gdal output lines and keeps the last error message
type gdalLogFilter struct {
	lastError string
}

// Filter implements log.Filter
func (f *gdalLogFilter) Filter(msg string, defaultLevel zapcore.Level) (string, zapcore.Level, bool) {
	switch {
	case strings.HasPrefix(msg, "ERROR"):
		f.lastError = strings.TrimSpace(msg)
		return msg, zapcore.ErrorLevel, false
	case strings.HasPrefix(msg, "Warning"):
		return msg, zapcore.WarnLevel, false
	case strings.TrimSpace(msg) == "" || strings.HasPrefix(msg, "0...10"):
		// progress lines
		return msg, defaultLevel, true
	}
	return msg, defaultLevel, false
}

// WrapError appends the last gdal error message to err
func (f *gdalLogFilter) WrapError(err error) error {
	if f.lastError != "" {
		return fmt.Errorf("%w: %s", err, f.lastError)
	}
	return err
}
