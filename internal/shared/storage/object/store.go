package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for archiving and retrieving raw uploads.
// Document text lives in the database; the store keeps the original file.
type ObjectStore interface {
	Save(ctx context.Context, userId string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}
