// Package storage is the bronze-layer object store: gzip-compressed JSON
// blobs at slash-separated key paths. The interface mirrors the hosted
// object-store collaborator; the shipped implementation is rooted on the
// local filesystem.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no blob exists at the path. Callers
// treat it as a soft failure and decide for themselves whether it is fatal.
var ErrNotFound = errors.New("blob not found")

// BlobStore stores and retrieves gzip-compressed JSON blobs.
type BlobStore interface {
	// Upload marshals v to JSON, compresses it and writes it at path,
	// replacing any existing blob.
	Upload(ctx context.Context, path string, v any) error

	// Load reads the blob at path, decompresses it and unmarshals into
	// into. Returns ErrNotFound when the path does not exist.
	Load(ctx context.Context, path string, into any) error

	// Exists reports whether a blob is present at path.
	Exists(ctx context.Context, path string) (bool, error)
}
