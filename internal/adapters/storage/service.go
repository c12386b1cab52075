// Package storage provides the S3-compatible object store used for damage
// photos. MinIOService talks to the bucket; PhotoStore adds the intake rules
// on top of it.
package storage

import (
	"context"
	"io"
)

// ObjectStore is the subset of bucket operations the photo store needs.
type ObjectStore interface {
	// UploadFile uploads a file from an io.Reader and returns the full key used.
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)

	// DeleteObject removes an object from storage.
	DeleteObject(ctx context.Context, bucket, fileKey string) error

	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinIOPublicBaseURL() string
	GetMinioBucketDamagePhotos() string
	IsMinIOEnabled() bool
}
