/*
Package storage handles attachment and avatar blobs through an
S3-compatible object store, exposed to the rest of the server as
presigned upload and download URLs.
*/
package storage

import (
	"context"
	"io"
	"time"
)

// ServiceConfig holds the connection settings for the object store.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// StorageService is the public interface for the blob store.
type StorageService interface {
	// PresignUpload generates a time-limited URL for uploading a file.
	PresignUpload(
		ctx context.Context,
		key string,
		mimeType string,
		fileSize int64,
		duration time.Duration,
	) (string, error)

	// PresignDownload generates a time-limited URL for downloading a file.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Upload streams a file to the store under key (used for avatars,
	// which the server receives directly as multipart form data).
	Upload(ctx context.Context, key string, mimeType string, body io.Reader) error

	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error
}

// NewStorageService builds the concrete StorageService for the given
// configuration. Only S3-compatible backends are supported.
func NewStorageService(cfg ServiceConfig) (StorageService, error) {
	return newS3Client(cfg)
}
