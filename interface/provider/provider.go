package provider

import (
	"context"
	"fmt"
	neturl "net/url"

	"github.com/geoforge/s2fetch/service"
	"github.com/geoforge/s2fetch/service/log"
)

// ErrDocumentNotFound is an error returned when a document is not found or available
type ErrDocumentNotFound struct {
	URL string
}

func (e ErrDocumentNotFound) Error() string {
	return fmt.Sprintf("Document not found or unavailable: %s", e.URL)
}

// DocumentProvider downloads a remote document verbatim to a local file
type DocumentProvider interface {
	// Name of the provider
	Name() string
	// Supports returns true if the provider handles the url scheme
	Supports(scheme string) bool
	// Fetch downloads the document at url to localFile
	Fetch(ctx context.Context, url, localFile string) error
}

// Fetch downloads the document with the first successful provider supporting the url scheme
func Fetch(ctx context.Context, providers []DocumentProvider, url, localFile string) error {
	u, err := neturl.Parse(url)
	if err != nil {
		return fmt.Errorf("Fetch.Parse[%s]: %w", url, err)
	}

	supported := false
	for _, p := range providers {
		if !p.Supports(u.Scheme) {
			continue
		}
		supported = true
		e := p.Fetch(ctx, url, localFile)
		if err = service.MergeErrors(false, err, e); err == nil {
			return nil
		}
		log.Logger(ctx).Sugar().Warnf("%s: %v", p.Name(), e)
	}
	if !supported {
		return fmt.Errorf("Fetch[%s]: no provider for scheme %s", url, u.Scheme)
	}
	return fmt.Errorf("Fetch.%w", err)
}
