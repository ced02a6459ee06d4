package fetcher_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/geoforge/s2fetch/common"
	"github.com/geoforge/s2fetch/downloader"
	"github.com/geoforge/s2fetch/fetcher"
	"github.com/geoforge/s2fetch/interface/provider"
	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func testSceneRecords() []common.SceneRecord {
	return []common.SceneRecord{
		{
			SourceID:    "S2A_T31UDQ_0001",
			VisualURL:   "https://cogs/S2A_T31UDQ_0001/TCI.tif",
			MetadataURL: "https://cogs/S2A_T31UDQ_0001/metadata.xml",
			EPSG:        32631,
		},
	}
}

func newTestFetcher(scenes []common.SceneRecord) (*fetcher.Fetcher, *MokeCatalog) {
	catalog := &MokeCatalog{scenes: scenes}
	return &fetcher.Fetcher{
		Catalog: catalog,
		Engine: &downloader.Engine{
			Raster:    &MokeRaster{},
			Documents: []provider.DocumentProvider{&MokeDocuments{}},
		},
	}, catalog
}

var _ = Describe("ParseDate", func() {
	It("parses iso dates", func() {
		d, err := fetcher.ParseDate("2023-01-15")
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)))
	})
	It("parses loose formats", func() {
		d, err := fetcher.ParseDate("01/15/2023")
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Year()).To(Equal(2023))
		Expect(d.Month()).To(Equal(time.January))
		Expect(d.Day()).To(Equal(15))
	})
	It("rejects garbage", func() {
		_, err := fetcher.ParseDate("not a date")
		Expect(err).To(HaveOccurred())
		var dateErr fetcher.ErrDateFormat
		Expect(errors.As(err, &dateErr)).To(BeTrue())
	})
})

var _ = Describe("ExtentAOI", func() {
	It("yields a single rectangle area", func() {
		areas, err := fetcher.ExtentAOI{Prefix: "AOI1", BBox: "2,48, 3, 49"}.Areas(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(areas).To(HaveLen(1))
		Expect(areas[0].Prefix).To(Equal("AOI1"))
	})
	It("rejects a malformed bbox", func() {
		_, err := fetcher.ExtentAOI{Prefix: "AOI1", BBox: "2,48,3"}.Areas(context.Background())
		Expect(err).To(HaveOccurred())
		_, err = fetcher.ExtentAOI{Prefix: "AOI1", BBox: "2,48,3,north"}.Areas(context.Background())
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("FeatureLayerAOI", func() {
	writeLayer := func(content string) string {
		f, err := os.CreateTemp("", "aoi-*.geojson")
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()
		_, err = f.WriteString(content)
		Expect(err).NotTo(HaveOccurred())
		return f.Name()
	}

	polygon := func(name string, x float64) string {
		ring := fmt.Sprintf("[[%g,48],[%g,49],[%g,49],[%g,48],[%g,48]]", x, x, x+1, x+1, x)
		return `{"type": "Feature", "properties": {"name": "` + name + `"}, "geometry": {"type": "Polygon", "coordinates": [` + ring + `]}}`
	}

	It("yields the features in the layer order", func() {
		path := writeLayer(`{"type": "FeatureCollection", "features": [` + polygon("zoneB", 2) + `,` + polygon("zoneA", 10) + `]}`)
		defer os.Remove(path)

		areas, err := fetcher.FeatureLayerAOI{Path: path, PrefixField: "name"}.Areas(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(areas).To(HaveLen(2))
		Expect(areas[0].Prefix).To(Equal("zoneB"))
		Expect(areas[1].Prefix).To(Equal("zoneA"))
	})

	It("fails when the prefix property is missing", func() {
		path := writeLayer(`{"type": "FeatureCollection", "features": [` + polygon("zoneB", 2) + `]}`)
		defer os.Remove(path)

		_, err := fetcher.FeatureLayerAOI{Path: path, PrefixField: "region"}.Areas(context.Background())
		Expect(err).To(HaveOccurred())
	})

	It("fails when the layer does not exist", func() {
		_, err := fetcher.FeatureLayerAOI{Path: "/nowhere/aoi.geojson", PrefixField: "name"}.Areas(context.Background())
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Fetcher", func() {
	var outDir string

	BeforeEach(func() {
		var err error
		outDir, err = os.MkdirTemp("", "s2fetch-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(outDir)
	})

	params := func() fetcher.FetchParams {
		return fetcher.FetchParams{
			StartTime:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			EndTime:      time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
			BufferMeters: 100000,
			OutputDir:    outDir,
		}
	}

	It("buffers the area, searches the catalog and retrieves the scenes", func() {
		f, catalog := newTestFetcher(testSceneRecords())
		aoi := fetcher.ExtentAOI{Prefix: "AOI1", BBox: "2,48,3,49"}

		reports, err := f.FetchAll(context.Background(), aoi, params())
		Expect(err).NotTo(HaveOccurred())
		Expect(reports).To(HaveLen(1))
		Expect(reports[0].Prefix).To(Equal("AOI1"))
		Expect(reports[0].Done).To(Equal(2))
		Expect(reports[0].Failed).To(Equal(0))

		Expect(catalog.searches).To(HaveLen(1))
		Expect(catalog.searches[0].BBox).To(Equal("1,47,4,50"))
		Expect(catalog.searches[0].Collections).To(Equal([]string{"sentinel-2-l2a"}))

		Expect(filepath.Join(outDir, "AOI1_S2A_T31UDQ_0001_TCI.tif")).To(BeAnExistingFile())
		Expect(filepath.Join(outDir, "AOI1_S2A_T31UDQ_0001_metadata.xml")).To(BeAnExistingFile())
	})

	It("drops the scenes outside the buffered area", func() {
		scenes := testSceneRecords()
		scenes[0].BBox = []float64{20, 20, 21, 21}
		far := common.SceneRecord{
			SourceID:  "S2A_T31UDQ_0002",
			VisualURL: "https://cogs/S2A_T31UDQ_0002/TCI.tif",
			EPSG:      32631,
			BBox:      []float64{2.5, 48.5, 3.5, 49.5},
		}
		f, _ := newTestFetcher(append(scenes, far))
		aoi := fetcher.ExtentAOI{Prefix: "AOI1", BBox: "2,48,3,49"}

		reports, err := f.FetchAll(context.Background(), aoi, params())
		Expect(err).NotTo(HaveOccurred())
		Expect(reports[0].Results).To(HaveLen(1))
		Expect(reports[0].Results[0].SourceID).To(Equal("S2A_T31UDQ_0002"))
	})

	It("reports an empty run when the catalog finds nothing", func() {
		f, _ := newTestFetcher(nil)
		aoi := fetcher.ExtentAOI{Prefix: "AOI1", BBox: "2,48,3,49"}

		reports, err := f.FetchAll(context.Background(), aoi, params())
		Expect(err).NotTo(HaveOccurred())
		Expect(reports).To(HaveLen(1))
		Expect(reports[0].Results).To(BeEmpty())
	})

	It("archives the outputs of a prefix", func() {
		f, _ := newTestFetcher(testSceneRecords())
		aoi := fetcher.ExtentAOI{Prefix: "AOI1", BBox: "2,48,3,49"}

		p := params()
		p.ArchiveOutputs = true
		_, err := f.FetchAll(context.Background(), aoi, p)
		Expect(err).NotTo(HaveOccurred())
		Expect(filepath.Join(outDir, "AOI1.zip")).To(BeAnExistingFile())
	})
})

var _ = Describe("FetchHandler", func() {
	var outDir string

	BeforeEach(func() {
		var err error
		outDir, err = os.MkdirTemp("", "s2fetch-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(outDir)
	})

	post := func(f *fetcher.Fetcher, request string) *httptest.ResponseRecorder {
		r := mux.NewRouter()
		f.AddHandler(r)
		form := url.Values{"request": {request}}
		req := httptest.NewRequest("POST", "/fetch", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	requestJSON := func() string {
		return `{
			"start_time": "2023-01-01T00:00:00Z",
			"end_time": "2023-01-31T00:00:00Z",
			"prefix": "AOI1",
			"output_dir": "` + outDir + `",
			"aoi": {"type": "Polygon", "coordinates": [[[2,48],[2,49],[3,49],[3,48],[2,48]]]}
		}`
	}

	It("runs a fetch and responds with the reports", func() {
		f, _ := newTestFetcher(testSceneRecords())
		w := post(f, requestJSON())
		Expect(w.Code).To(Equal(200))

		var reports []downloader.Report
		Expect(json.Unmarshal(w.Body.Bytes(), &reports)).To(Succeed())
		Expect(reports).To(HaveLen(1))
		Expect(reports[0].Prefix).To(Equal("AOI1"))
		Expect(reports[0].Done).To(Equal(2))
	})

	It("rejects a request without the json field", func() {
		f, _ := newTestFetcher(nil)
		r := mux.NewRouter()
		f.AddHandler(r)
		req := httptest.NewRequest("POST", "/fetch", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(400))
	})

	It("rejects an invalid request", func() {
		f, _ := newTestFetcher(nil)
		w := post(f, `{"prefix": "AOI1"}`)
		Expect(w.Code).To(Equal(400))
	})
})
