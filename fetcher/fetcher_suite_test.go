package fetcher_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/geoforge/s2fetch/common"
	"github.com/geoforge/s2fetch/fetcher/entities"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// MokeCatalog implements catalog.ScenesProvider
type MokeCatalog struct {
	scenes   []common.SceneRecord
	searches []entities.SearchArea
	err      error
}

// SearchScenes implements catalog.ScenesProvider
func (c *MokeCatalog) SearchScenes(ctx context.Context, area entities.SearchArea) ([]common.SceneRecord, error) {
	c.searches = append(c.searches, area)
	return c.scenes, c.err
}

// MokeRaster implements raster.Processor
type MokeRaster struct {
	clips int
}

func (r *MokeRaster) OpenRemote(ctx context.Context, url, vrtFile string) error {
	return os.WriteFile(vrtFile, []byte(url), 0644)
}

func (r *MokeRaster) Reproject(ctx context.Context, src, dst string, epsg int) error {
	return os.WriteFile(dst, []byte(fmt.Sprintf("EPSG:%d", epsg)), 0644)
}

func (r *MokeRaster) Clip(ctx context.Context, srcFile, cutlineFile, outFile string) error {
	r.clips++
	return os.WriteFile(outFile, []byte("raster"), 0644)
}

// MokeDocuments implements provider.DocumentProvider
type MokeDocuments struct {
	fetched int
}

func (p *MokeDocuments) Name() string                { return "moke" }
func (p *MokeDocuments) Supports(scheme string) bool { return scheme == "https" }
func (p *MokeDocuments) Fetch(ctx context.Context, url, localFile string) error {
	p.fetched++
	return os.WriteFile(localFile, []byte(url), 0644)
}

func TestFetcher(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Fetcher Suite")
}
