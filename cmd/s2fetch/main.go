package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/geoforge/s2fetch/downloader"
	"github.com/geoforge/s2fetch/fetcher"
	"github.com/geoforge/s2fetch/interface/catalog/earthsearch"
	"github.com/geoforge/s2fetch/interface/provider"
	"github.com/geoforge/s2fetch/interface/raster"
	"github.com/geoforge/s2fetch/service"
	"github.com/geoforge/s2fetch/service/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

type config struct {
	StacURL     string
	StacToken   string
	Collections string
	MaxRetries  int
	Backoff     time.Duration

	StartDate string
	EndDate   string
	Buffer    float64
	BBox      string
	Prefix    string
	AOIFile   string
	PrefixF   string
	OutDir    string

	Thumbnails     bool
	ArchiveOutputs bool
	ArchivePattern string

	AWSRegion    string
	AWSAccessKey string
	AWSSecretKey string
	WithGS       bool
	FTPUsername  string
	FTPPassword  string

	Port    int
	Verbose bool
}

func newAppConfig() (*config, error) {
	config := config{}
	flag.StringVar(&config.StacURL, "stac-url", earthsearch.EarthSearchURL, "url of the STAC search endpoint")
	flag.StringVar(&config.StacToken, "stac-token", "", "bearer token of the STAC endpoint (optional)")
	flag.StringVar(&config.Collections, "collections", earthsearch.CollectionSentinel2L2A, "comma-separated list of the collections to search")
	flag.IntVar(&config.MaxRetries, "max-retries", 5, "number of retries of a failed catalog request")
	flag.DurationVar(&config.Backoff, "retry-backoff", 100*time.Millisecond, "initial backoff of the catalog retries (doubled at each retry)")

	flag.StringVar(&config.StartDate, "start", "", "start date of the search (UTC)")
	flag.StringVar(&config.EndDate, "end", "", "end date of the search (UTC)")
	flag.Float64Var(&config.Buffer, "buffer", 250, "buffer distance around the area of interest (meters)")
	flag.StringVar(&config.BBox, "bbox", "", "area of interest as a WGS84 bounding box xmin,ymin,xmax,ymax (e.g. the visible extent of a map)")
	flag.StringVar(&config.Prefix, "prefix", "", "prefix of the output files (with -bbox)")
	flag.StringVar(&config.AOIFile, "aoi", "", "geojson file with the polygon features to process (alternative to -bbox)")
	flag.StringVar(&config.PrefixF, "prefix-field", "", "feature property used as output prefix (with -aoi)")
	flag.StringVar(&config.OutDir, "outdir", "", "output directory")

	flag.BoolVar(&config.Thumbnails, "thumbnails", false, "also download the scene thumbnails")
	flag.BoolVar(&config.ArchiveOutputs, "archive-outputs", false, "zip the output files of each prefix")
	flag.StringVar(&config.ArchivePattern, "metadata-archive-pattern", "", "url pattern of the product archives used as metadata fallback, e.g. gs://bucket/{YEAR}/{TILE}/{SCENE}.zip (optional)")

	flag.StringVar(&config.AWSRegion, "aws-region", "us-west-2", "region of the s3:// assets")
	flag.StringVar(&config.AWSAccessKey, "aws-access-key", "", "access key for the s3:// assets (anonymous if empty)")
	flag.StringVar(&config.AWSSecretKey, "aws-secret-key", "", "secret key for the s3:// assets")
	flag.BoolVar(&config.WithGS, "with-gs", false, "enable the download of gs:// assets (requires google credentials)")
	flag.StringVar(&config.FTPUsername, "ftp-username", "", "username for the ftp:// assets (optional)")
	flag.StringVar(&config.FTPPassword, "ftp-password", "", "password for the ftp:// assets")

	flag.IntVar(&config.Port, "port", 0, "if not null, start a fetch server on this port instead of running once")
	flag.BoolVar(&config.Verbose, "verbose", false, "enable debug logs")
	flag.Parse()

	if config.Port == 0 {
		if config.OutDir == "" {
			return nil, fmt.Errorf("missing required flag: -outdir")
		}
		if config.StartDate == "" || config.EndDate == "" {
			return nil, fmt.Errorf("missing required flags: -start and -end")
		}
		if config.AOIFile == "" && config.BBox == "" {
			return nil, fmt.Errorf("one of -aoi or -bbox is required")
		}
		if config.BBox != "" && config.Prefix == "" {
			return nil, fmt.Errorf("missing required flag: -prefix (with -bbox)")
		}
		if config.AOIFile != "" && config.PrefixF == "" {
			return nil, fmt.Errorf("missing required flag: -prefix-field (with -aoi)")
		}
	}
	return &config, nil
}

func main() {
	ctx, cncl := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cncl()
	if err := run(ctx); err != nil {
		log.Fatal("error", zap.Error(err))
	}
}

func newFetcher(ctx context.Context, config *config) *fetcher.Fetcher {
	session := service.NewSession(ctx, service.SessionConfig{
		MaxRetries:        config.MaxRetries,
		Backoff:           config.Backoff,
		RetryableStatuses: []int{500, 502, 503, 504},
		Token:             config.StacToken,
	})

	documentProviders := []provider.DocumentProvider{
		provider.NewHTTPDocumentProvider(),
		provider.NewS3DocumentProvider(config.AWSRegion, config.AWSAccessKey, config.AWSSecretKey),
	}
	if config.WithGS {
		documentProviders = append(documentProviders, provider.NewGSDocumentProvider())
	}
	if config.FTPUsername != "" {
		documentProviders = append(documentProviders, provider.NewFTPDocumentProvider(config.FTPUsername, config.FTPPassword))
	}

	engine := &downloader.Engine{
		Raster:     raster.NewGDAL(),
		Documents:  documentProviders,
		Thumbnails: config.Thumbnails,
	}
	if config.ArchivePattern != "" {
		engine.Archive = &provider.ArchiveDocumentProvider{URLPattern: config.ArchivePattern}
	}

	return &fetcher.Fetcher{
		Catalog:     earthsearch.NewProvider(config.StacURL, session),
		Engine:      engine,
		Collections: strings.Split(config.Collections, ","),
	}
}

func run(ctx context.Context) error {
	config, err := newAppConfig()
	if err != nil {
		return err
	}
	if config.Verbose {
		log.SetLevel(zapcore.DebugLevel)
	}

	f := newFetcher(ctx, config)

	if config.Port != 0 {
		return serve(ctx, f, config.Port)
	}

	startTime, err := fetcher.ParseDate(config.StartDate)
	if err != nil {
		return err
	}
	endTime, err := fetcher.ParseDate(config.EndDate)
	if err != nil {
		return err
	}

	var aoi fetcher.AOIProvider
	if config.AOIFile != "" {
		aoi = fetcher.FeatureLayerAOI{Path: config.AOIFile, PrefixField: config.PrefixF}
	} else {
		aoi = fetcher.ExtentAOI{Prefix: config.Prefix, BBox: config.BBox}
	}

	log.Logger(ctx).Sugar().Infof("fetching %s/%s [%s, %s] buffer %gm to %s",
		config.StacURL, config.Collections, fetcher.ToISODate(startTime), fetcher.ToISODate(endTime), config.Buffer, config.OutDir)

	reports, err := f.FetchAll(ctx, aoi, fetcher.FetchParams{
		StartTime:      startTime,
		EndTime:        endTime,
		BufferMeters:   config.Buffer,
		OutputDir:      config.OutDir,
		Collections:    strings.Split(config.Collections, ","),
		ArchiveOutputs: config.ArchiveOutputs,
	})
	if err != nil {
		return err
	}
	return service.ToJSON(reports, config.OutDir, "report.json")
}

func serve(ctx context.Context, f *fetcher.Fetcher, port int) error {
	r := mux.NewRouter()
	f.AddHandler(r)
	s := http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handlers.CORS()(r),
	}

	log.Logger(ctx).Sugar().Infof("fetch server listening on %s", s.Addr)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve.ListenAndServe: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cncl := context.WithTimeout(context.Background(), 30*time.Second)
		defer cncl()
		return s.Shutdown(sctx)
	})
	return g.Wait()
}
