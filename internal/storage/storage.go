package storage

import "context"

// ObjectStorage captures the operations the offer artifact store needs
// from an S3-compatible backend.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}
