// internal/app/system/media/media.go

// Package media stores uploaded blobs (repository files, profile images)
// in an S3-compatible object store via the MinIO client.
package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Store wraps a MinIO client bound to one bucket.
type Store struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

// Config holds the connection settings for the media store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

// New connects to the object store and makes sure the bucket exists.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create media client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check media bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create media bucket %q: %w", cfg.Bucket, err)
		}
		log.Info("created media bucket", zap.String("bucket", cfg.Bucket))
	}

	return &Store{client: client, bucket: cfg.Bucket, log: log}, nil
}

// ObjectKey builds a collision-free object key under the given prefix,
// keeping the original extension so content type survives round trips.
func ObjectKey(prefix, originalName string) string {
	ext := strings.ToLower(path.Ext(originalName))
	return prefix + "/" + uuid.NewString() + ext
}

// Upload stores a blob under key and returns the key.
func (s *Store) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %q: %w", key, err)
	}
	s.log.Debug("media object stored",
		zap.String("key", key),
		zap.Int64("size", size))
	return key, nil
}

// Delete removes a blob. Deleting a missing object is not an error, which
// keeps cascade deletes idempotent.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// PresignedGetURL returns a time-limited download URL for a blob. The
// download filename is forced via the content-disposition response header.
func (s *Store) PresignedGetURL(ctx context.Context, key, downloadName string, expiry time.Duration) (string, error) {
	params := make(url.Values)
	if downloadName != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, params)
	if err != nil {
		return "", fmt.Errorf("presign %q: %w", key, err)
	}
	return u.String(), nil
}

// PublicURL returns the direct (unsigned) URL of a blob. Only meaningful
// for objects in world-readable prefixes such as profile images.
func (s *Store) PublicURL(key string) string {
	return s.client.EndpointURL().String() + "/" + s.bucket + "/" + key
}

// Ping verifies connectivity and credentials against the object store.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("media store ping: %w", err)
	}
	return nil
}
