// Package blob stores student photos in S3-compatible object storage and
// hands back a publicly resolvable URL for each one.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store accepts a payload under key and returns its public URL.
type Store interface {
	Put(ctx context.Context, key string, data io.Reader, size int64, contentType string) (string, error)
}

// PhotoKey builds the object key for an owner's upload:
// "<owner>/<unix-millis><ext>", keeping the original file extension.
func PhotoKey(owner string, now time.Time, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%d%s", owner, now.UnixMilli(), ext)
}

// Config configures a MinIO / S3 connection.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// PublicURL is the base under which objects are served, e.g. a CDN.
	// Empty means "<endpoint>/<bucket>".
	PublicURL string
	Timeout   time.Duration
}

// MinIO is a Store backed by a single bucket.
type MinIO struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

var _ Store = (*MinIO)(nil)

// NewMinIO connects, and creates the bucket if it does not exist.
func NewMinIO(ctx context.Context, cfg Config) (*MinIO, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("blob.NewMinIO: client: %w", err)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("blob.NewMinIO: check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("blob.NewMinIO: create bucket: %w", err)
		}
	}

	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" {
		base = strings.TrimRight(client.EndpointURL().String(), "/") + "/" + cfg.Bucket
	}

	return &MinIO{client: client, bucket: cfg.Bucket, publicURL: base}, nil
}

// Put uploads data and returns "<public-url>/<key>".
func (m *MinIO) Put(ctx context.Context, key string, data io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := m.client.PutObject(ctx, m.bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("blob.Put %s: %w", key, err)
	}
	return m.publicURL + "/" + key, nil
}
