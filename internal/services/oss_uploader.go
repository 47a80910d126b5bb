package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"pfotencard-backend/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSStore is an ObjectStore backed by one Aliyun OSS bucket.
type OSSStore struct {
	bucket     *oss.Bucket
	endpoint   string
	bucketName string
}

func NewOSSStore(cfg *config.Config, bucketName string) (*OSSStore, error) {
	if cfg.OSSEndpoint == "" {
		return nil, fmt.Errorf("OSS endpoint is not configured")
	}
	client, err := oss.New(
		cfg.OSSEndpoint,
		cfg.OSSAccessKeyID,
		cfg.OSSAccessKeySecret,
		oss.Timeout(60, 120), // Connect timeout 60s, Read/Write timeout 120s
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &OSSStore{bucket: bucket, endpoint: cfg.OSSEndpoint, bucketName: bucketName}, nil
}

func (s *OSSStore) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	opts := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	return s.bucket.PutObject(key, r, opts...)
}

func (s *OSSStore) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return s.bucket.SignURL(key, oss.HTTPGet, int64(ttl.Seconds()))
}

func (s *OSSStore) Delete(ctx context.Context, key string) error {
	return s.bucket.DeleteObject(key, oss.WithContext(ctx))
}

func (s *OSSStore) PublicURL(key string) string {
	return publicObjectURL(s.endpoint, s.bucketName, key)
}

// publicObjectURL builds the virtual-hosted URL https://<bucket>.<endpoint>/<key>.
func publicObjectURL(endpoint, bucketName, key string) string {
	scheme := "https"
	host := endpoint
	if parts := strings.SplitN(endpoint, "://", 2); len(parts) == 2 {
		scheme, host = parts[0], parts[1]
	}
	host = strings.TrimRight(host, "/")
	return fmt.Sprintf("%s://%s.%s/%s", scheme, bucketName, host, strings.TrimLeft(key, "/"))
}
