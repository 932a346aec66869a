// Package storage implements the gallery's object store on MinIO.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"linesen/internal/config"
	"linesen/internal/observability"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// objectAPI is the subset of *minio.Client the store needs.
type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinIOStorage stores artwork assets in a single bucket.
type MinIOStorage struct {
	client     objectAPI
	bucket     string
	publicBase string
}

// NewMinIOStorage creates the MinIO client and makes sure the bucket exists.
func NewMinIOStorage(ctx context.Context, cfg *config.Config) (*MinIOStorage, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	base := cfg.MinIOPublicBase
	if base == "" {
		scheme := "http"
		if cfg.MinIOUseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, client.EndpointURL().Host, cfg.MinIOBucket)
	}
	return newMinIOStorage(client, cfg.MinIOBucket, base), nil
}

func newMinIOStorage(client objectAPI, bucket, publicBase string) *MinIOStorage {
	return &MinIOStorage{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

// Upload stores data under key.
func (s *MinIOStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	span, ctx := observability.StoreSpan(ctx, "upload", s.bucket)
	defer span.End()

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		span.SetError(err)
		return fmt.Errorf("failed to upload to minio: %w", err)
	}
	return nil
}

// PublicURL returns the URL the feed renders for key.
func (s *MinIOStorage) PublicURL(key string) string {
	return s.publicBase + "/" + strings.TrimLeft(key, "/")
}

// Remove deletes every key, continuing past failures and joining their errors.
func (s *MinIOStorage) Remove(ctx context.Context, keys ...string) error {
	span, ctx := observability.StoreSpan(ctx, "remove", s.bucket)
	defer span.End()

	var errs []error
	for _, key := range keys {
		if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete object %s: %w", key, err))
		}
	}
	err := errors.Join(errs...)
	span.SetError(err)
	return err
}

// AssetKey derives the object key of an uploaded asset from its public URL:
// the URL's trailing path segment under prefix.
func AssetKey(prefix, imageURL string) (string, bool) {
	raw := strings.TrimSpace(imageURL)
	if raw == "" {
		return "", false
	}
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	name := path.Base(p)
	if name == "." || name == "/" || name == "" {
		return "", false
	}
	return path.Join(prefix, name), true
}
