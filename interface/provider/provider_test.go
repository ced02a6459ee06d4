package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

type fakeProvider struct {
	name    string
	scheme  string
	err     error
	fetched int
}

func (p *fakeProvider) Name() string                { return p.name }
func (p *fakeProvider) Supports(scheme string) bool { return scheme == p.scheme }
func (p *fakeProvider) Fetch(ctx context.Context, url, localFile string) error {
	p.fetched++
	return p.err
}

func TestFetchDispatch(t *testing.T) {
	ctx := context.Background()
	s3 := &fakeProvider{name: "s3", scheme: "s3"}
	https := &fakeProvider{name: "https", scheme: "https"}
	providers := []DocumentProvider{https, s3}

	if err := Fetch(ctx, providers, "s3://bucket/key.tif", "/tmp/out.tif"); err != nil {
		t.Errorf("err: %v", err)
	}
	if s3.fetched != 1 || https.fetched != 0 {
		t.Errorf("expected the s3 provider only, got s3=%d https=%d", s3.fetched, https.fetched)
	}
}

func TestFetchNoProvider(t *testing.T) {
	ctx := context.Background()
	providers := []DocumentProvider{&fakeProvider{name: "https", scheme: "https"}}
	if err := Fetch(ctx, providers, "ftp://host/file.xml", "/tmp/out.xml"); err == nil {
		t.Errorf("expected an error for an unsupported scheme")
	}
}

func TestFetchFallthrough(t *testing.T) {
	ctx := context.Background()
	failing := &fakeProvider{name: "failing", scheme: "https", err: fmt.Errorf("boom")}
	working := &fakeProvider{name: "working", scheme: "https"}

	if err := Fetch(ctx, []DocumentProvider{failing, working}, "https://host/file.xml", "/tmp/out.xml"); err != nil {
		t.Errorf("expected the second provider to succeed, got %v", err)
	}
	if failing.fetched != 1 || working.fetched != 1 {
		t.Errorf("expected both providers to be tried, got %d and %d", failing.fetched, working.fetched)
	}

	failing.fetched, working.fetched = 0, 0
	working.err = fmt.Errorf("boom too")
	if err := Fetch(ctx, []DocumentProvider{failing, working}, "https://host/file.xml", "/tmp/out.xml"); err == nil {
		t.Errorf("expected an error when all the providers fail")
	}
}

func TestHTTPDocumentProvider(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/found.xml" {
			w.Write([]byte("<metadata/>"))
			return
		}
		w.WriteHeader(404)
	}))
	defer svr.Close()

	ctx := context.Background()
	p := NewHTTPDocumentProvider()
	if !p.Supports("http") || !p.Supports("https") || p.Supports("s3") {
		t.Errorf("unexpected supported schemes")
	}

	localFile := filepath.Join(t.TempDir(), "found.xml")
	if err := p.Fetch(ctx, svr.URL+"/found.xml", localFile); err != nil {
		t.Fatalf("err: %v", err)
	}
	data, err := os.ReadFile(localFile)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if string(data) != "<metadata/>" {
		t.Errorf("unexpected content: %s", data)
	}

	err = p.Fetch(ctx, svr.URL+"/absent.xml", filepath.Join(t.TempDir(), "absent.xml"))
	var notFound ErrDocumentNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
}
