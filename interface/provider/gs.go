package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/geoforge/s2fetch/service"
)

// GSDocumentProvider implements DocumentProvider for gs:// urls
type GSDocumentProvider struct {
}

// NewGSDocumentProvider creates a new DocumentProvider downloading from Google Storage buckets
func NewGSDocumentProvider() *GSDocumentProvider {
	return &GSDocumentProvider{}
}

// Name implements DocumentProvider
func (ip *GSDocumentProvider) Name() string {
	return "GoogleStorage"
}

// Supports implements DocumentProvider
func (ip *GSDocumentProvider) Supports(scheme string) bool {
	return scheme == "gs"
}

// Fetch implements DocumentProvider
func (ip *GSDocumentProvider) Fetch(ctx context.Context, url, localFile string) error {
	bucket, object, err := parseObjectURL(url, "gs")
	if err != nil {
		return fmt.Errorf("GSDocumentProvider.%w", err)
	}

	gsClient, err := storage.NewClient(ctx)
	if err != nil {
		return service.MakeTemporary(fmt.Errorf("GSDocumentProvider.NewClient: %w", err))
	}
	defer gsClient.Close()

	r, err := gsClient.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ErrDocumentNotFound{url}
		}
		return fmt.Errorf("GSDocumentProvider.NewReader[%s]: %w", url, err)
	}
	defer r.Close()

	f, err := os.Create(localFile)
	if err != nil {
		return fmt.Errorf("GSDocumentProvider.Create: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(localFile)
		return service.MakeTemporary(fmt.Errorf("GSDocumentProvider.Copy[%s]: %w", url, err))
	}
	return nil
}
