package provider

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3DocumentProvider implements DocumentProvider for s3:// urls
type S3DocumentProvider struct {
	region          string
	accessKeyID     string
	secretAccessKey string
}

// NewS3DocumentProvider creates a new DocumentProvider downloading from S3 buckets.
// With empty credentials, the requests are anonymous (public buckets).
func NewS3DocumentProvider(region, accessKeyID, secretAccessKey string) *S3DocumentProvider {
	return &S3DocumentProvider{region: region, accessKeyID: accessKeyID, secretAccessKey: secretAccessKey}
}

// Name implements DocumentProvider
func (ip *S3DocumentProvider) Name() string {
	return "S3"
}

// Supports implements DocumentProvider
func (ip *S3DocumentProvider) Supports(scheme string) bool {
	return scheme == "s3"
}

// Fetch implements DocumentProvider
func (ip *S3DocumentProvider) Fetch(ctx context.Context, url, localFile string) error {
	bucket, key, err := parseObjectURL(url, "s3")
	if err != nil {
		return fmt.Errorf("S3DocumentProvider.%w", err)
	}

	var credsProvider aws.CredentialsProvider = aws.AnonymousCredentials{}
	if ip.accessKeyID != "" {
		credsProvider = credentials.NewStaticCredentialsProvider(ip.accessKeyID, ip.secretAccessKey, "")
	}
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(ip.region),
		config.WithCredentialsProvider(credsProvider),
	)
	if err != nil {
		return fmt.Errorf("S3DocumentProvider.LoadDefaultConfig: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	downloader := manager.NewDownloader(client, func(d *manager.Downloader) {
		d.PartSize = 10 * 1024 * 1024 // 10MB per part
	})

	f, err := os.Create(localFile)
	if err != nil {
		return fmt.Errorf("S3DocumentProvider.Create: %w", err)
	}
	defer f.Close()

	if _, err = downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		os.Remove(localFile)
		return fmt.Errorf("S3DocumentProvider.Download[%s]: %w", url, err)
	}
	return nil
}

// parseObjectURL splits <scheme>://bucket/key
func parseObjectURL(url, scheme string) (string, string, error) {
	rest, ok := strings.CutPrefix(url, scheme+"://")
	if !ok {
		return "", "", fmt.Errorf("parseObjectURL: not a %s url: %s", scheme, url)
	}
	splits := strings.SplitN(rest, "/", 2)
	if len(splits) != 2 || splits[0] == "" || splits[1] == "" {
		return "", "", fmt.Errorf("parseObjectURL: invalid url: %s", url)
	}
	return splits[0], splits[1], nil
}
