package provider

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cavaliercoder/grab"
	"github.com/geoforge/s2fetch/service"
	"github.com/geoforge/s2fetch/service/log"
)

// HTTPDocumentProvider implements DocumentProvider for http(s) urls
type HTTPDocumentProvider struct {
}

// NewHTTPDocumentProvider creates a new DocumentProvider for direct http(s) links
func NewHTTPDocumentProvider() *HTTPDocumentProvider {
	return &HTTPDocumentProvider{}
}

// Name implements DocumentProvider
func (ip *HTTPDocumentProvider) Name() string {
	return "HTTP"
}

// Supports implements DocumentProvider
func (ip *HTTPDocumentProvider) Supports(scheme string) bool {
	return scheme == "http" || scheme == "https"
}

// Fetch implements DocumentProvider
func (ip *HTTPDocumentProvider) Fetch(ctx context.Context, url, localFile string) error {
	req, err := grab.NewRequest(localFile, url)
	if err != nil {
		return fmt.Errorf("HTTPDocumentProvider.NewRequest: %w", err)
	}
	req = req.WithContext(ctx)

	client := grab.NewClient()
	resp := client.Do(req)

	displayProgress(ctx, filepath.Base(localFile), resp, 0.05)

	if err := resp.Err(); err != nil {
		err = fmt.Errorf("HTTPDocumentProvider[%s]: %w", url, err)
		if resp.HTTPResponse == nil {
			return service.MakeTemporary(err)
		}
		switch resp.HTTPResponse.StatusCode {
		case 404, 410:
			return ErrDocumentNotFound{url}
		case 408, 429, 500, 501, 502, 503, 504:
			return service.MakeTemporary(err)
		default:
			return err
		}
	}
	return nil
}

func fmtBytes(bytes int64) string {
	v := float64(bytes)
	switch {
	case v > 1<<30:
		return fmt.Sprintf("%.2fGo", v/(1<<30))
	case v > 1<<20:
		return fmt.Sprintf("%.2fMo", v/(1<<20))
	case v > 1<<10:
		return fmt.Sprintf("%.2fko", v/(1<<10))
	default:
		return fmt.Sprintf("%.2fo", v)
	}
}

// displayProgress logs the download progress every progressPeriod (0.05 = every 5%)
func displayProgress(ctx context.Context, prefix string, resp *grab.Response, progressPeriod float64) {
	t := time.NewTicker(time.Second)
	defer t.Stop()

	progress, lastBytes, seconds := 0.0, int64(0), int64(0)
	for {
		select {
		case <-t.C:
			seconds++
			if resp.Progress() > progress {
				log.Logger(ctx).Sugar().Debugf("%s: %.2f%% %s/%s (%s/s)", prefix, 100*resp.Progress(), fmtBytes(resp.BytesComplete()), fmtBytes(resp.Size), fmtBytes((resp.BytesComplete()-lastBytes)/seconds))
				seconds = 0
				progress += progressPeriod
				lastBytes = resp.BytesComplete()
			}

		case <-resp.Done:
			return
		}
	}
}
