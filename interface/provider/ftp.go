package provider

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/geoforge/s2fetch/service"
	"github.com/geoforge/s2fetch/service/log"
	"github.com/jlaffaye/ftp"
)

// FTPDocumentProvider implements DocumentProvider for ftp:// urls
type FTPDocumentProvider struct {
	user  string
	pword string
}

// NewFTPDocumentProvider creates a new DocumentProvider downloading from ftp servers.
// With an empty user, the connection is anonymous.
func NewFTPDocumentProvider(user, pword string) *FTPDocumentProvider {
	if user == "" {
		user, pword = "anonymous", "anonymous"
	}
	return &FTPDocumentProvider{user: user, pword: pword}
}

// Name implements DocumentProvider
func (ip *FTPDocumentProvider) Name() string {
	return "FTP"
}

// Supports implements DocumentProvider
func (ip *FTPDocumentProvider) Supports(scheme string) bool {
	return scheme == "ftp"
}

// Fetch implements DocumentProvider
func (ip *FTPDocumentProvider) Fetch(ctx context.Context, url, localFile string) error {
	hote, path, err := parseFTPURL(url)
	if err != nil {
		return fmt.Errorf("FTPDocumentProvider.%w", err)
	}

	ftpOption := []ftp.DialOption{ftp.DialWithTimeout(5 * time.Second), ftp.DialWithContext(ctx)}
	if strings.HasSuffix(hote, ":990") {
		ftpOption = append(ftpOption, ftp.DialWithTLS(&tls.Config{InsecureSkipVerify: true}))
	}
	c, err := ftp.Dial(hote, ftpOption...)
	if err != nil {
		return service.MakeTemporary(fmt.Errorf("FTPDocumentProvider.Dial: %w", err))
	}
	defer c.Quit()

	if err = c.Login(ip.user, ip.pword); err != nil {
		return fmt.Errorf("FTPDocumentProvider.Login: %w", err)
	}

	if size, err := c.FileSize(path); err == nil {
		log.Logger(ctx).Sugar().Debugf("FTP: downloading %s (%s)", path, fmtBytes(size))
	}

	r, err := c.Retr(path)
	if err != nil {
		return ErrDocumentNotFound{url}
	}
	defer r.Close()

	f, err := os.Create(localFile)
	if err != nil {
		return fmt.Errorf("FTPDocumentProvider.Create: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(localFile)
		return service.MakeTemporary(fmt.Errorf("FTPDocumentProvider.Copy[%s]: %w", url, err))
	}
	return nil
}

// parseFTPURL splits ftp://host[:port]/path, defaulting the port to 21
func parseFTPURL(url string) (string, string, error) {
	rest, ok := strings.CutPrefix(url, "ftp://")
	if !ok {
		return "", "", fmt.Errorf("parseFTPURL: not a ftp url: %s", url)
	}
	splits := strings.SplitN(rest, "/", 2)
	if len(splits) != 2 {
		return "", "", fmt.Errorf("parseFTPURL: invalid url: %s", url)
	}
	hote := splits[0]
	if !strings.Contains(hote, ":") {
		hote += ":21"
	}
	return hote, splits[1], nil
}
