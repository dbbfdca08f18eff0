package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("storage: object not found")

// Object describes one stored upload.
type Object struct {
	Key        string
	Size       int64
	ModifiedAt time.Time
}

// Store is the upload archive used by the prediction service and the
// cleanup job. Keys are forward-slash separated paths.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]Object, error)
}
