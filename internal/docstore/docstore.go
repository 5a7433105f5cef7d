// Package docstore is the blob/document backing store for case JSON
// documents. Paths are hierarchical object keys; a put always replaces the
// whole value at its path.
package docstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for reads, stats and deletes of a path that has
// never been written (or has been deleted).
var ErrNotFound = errors.New("document not found")

// Meta describes a stored document without its body.
type Meta struct {
	Size         int64
	LastModified time.Time
	ETag         string
}

// Store is implemented by the minio backend (production) and the in-memory
// backend (tests, dev mode).
type Store interface {
	// Get returns the full document body, or ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)
	// Stat returns document metadata without the body, or ErrNotFound.
	Stat(ctx context.Context, path string) (*Meta, error)
	// Put replaces the entire value at path with data.
	Put(ctx context.Context, path string, data []byte) error
	// Delete removes the path; ErrNotFound if it does not exist.
	Delete(ctx context.Context, path string) error
}
