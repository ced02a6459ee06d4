package provider

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	neturl "net/url"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/airbusgeo/osio"
	osioGcs "github.com/airbusgeo/osio/gcs"
	osioS3 "github.com/airbusgeo/osio/s3"
	"github.com/geoforge/s2fetch/common"
)

// granuleMetadataRe matches the metadata documents inside a Sentinel-2 product archive
var granuleMetadataRe = regexp.MustCompile(`MTD_(TL|MSIL2A|MSIL1C)\.xml$`)

// ArchiveDocumentProvider retrieves the metadata document of a scene from the product
// archive when the catalog does not expose a granule_metadata asset.
// URLPattern locates the archive from the product name components, e.g.
// "gs://my-products/{YEAR}/{TILE}/{SCENE}.zip" (see common.FormatBrackets).
type ArchiveDocumentProvider struct {
	URLPattern string
}

// FetchMetadata extracts the first granule metadata file of the scene archive into localFile
func (ap ArchiveDocumentProvider) FetchMetadata(ctx context.Context, sceneID, localFile string) error {
	info, err := common.Info(sceneID)
	if err != nil {
		return fmt.Errorf("FetchMetadata.Info: %w", err)
	}
	file := common.FormatBrackets(ap.URLPattern, info)

	if err := extract(ctx, file, granuleMetadataRe, localFile); err != nil {
		return fmt.Errorf("FetchMetadata[%s].%w", file, err)
	}
	return nil
}

// extract streams the remote archive and writes the first file matching reg to localFile
func extract(ctx context.Context, file string, reg *regexp.Regexp, localFile string) error {
	var reader io.ReaderAt
	var size int64

	u, err := neturl.Parse(file)
	if err != nil {
		return fmt.Errorf("Parse: %w", err)
	}
	protocol := strings.ToLower(u.Scheme)
	switch protocol {
	case "file", "":
		obj, err := os.Open(strings.TrimPrefix(file, "file://"))
		if err != nil {
			return fmt.Errorf("os.Open: %w", err)
		}
		defer obj.Close()

		stat, err := obj.Stat()
		if err != nil {
			return fmt.Errorf("obj.Stat: %w", err)
		}
		reader = obj
		size = stat.Size()
	case "gs", "s3":
		var handler osio.KeyStreamerAt
		if protocol == "gs" {
			if handler, err = osioGcs.Handle(ctx); err != nil {
				return fmt.Errorf("extract.GSHandle: %w", err)
			}
		} else {
			if handler, err = osioS3.Handle(ctx); err != nil {
				return fmt.Errorf("extract.S3Handle: %w", err)
			}
		}
		adapter, err := osio.NewAdapter(handler)
		if err != nil {
			return fmt.Errorf("extract.NewAdapter: %w", err)
		}
		obj, err := adapter.Reader(path.Join(u.Host, u.Path))
		if err != nil {
			return fmt.Errorf("extract.Reader: %w", err)
		}
		reader = obj
		size = obj.Size()
	default:
		return fmt.Errorf("failed to determine storage strategy")
	}

	zipf, err := zip.NewReader(reader, size)
	if err != nil {
		return fmt.Errorf("extract.NewReader: %w", err)
	}

	for _, f := range zipf.File {
		if !reg.MatchString(f.Name) {
			continue
		}
		fr, err := f.Open()
		if err != nil {
			return fmt.Errorf("extract.Open[%s]: %w", f.Name, err)
		}
		defer fr.Close()

		out, err := os.Create(localFile)
		if err != nil {
			return fmt.Errorf("extract.Create: %w", err)
		}
		defer out.Close()

		if _, err := io.Copy(out, fr); err != nil {
			os.Remove(localFile)
			return fmt.Errorf("extract.Copy[%s]: %w", f.Name, err)
		}
		return nil
	}
	return ErrDocumentNotFound{file}
}
