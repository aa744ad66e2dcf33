// Package storage saves materialized downloads under a local base directory.
package storage

import (
	"context"

	"github.com/JaimeStill/docview/pkg/lifecycle"
)

// System stores named blobs. Keys are slash-separated paths relative to the
// storage root.
type System interface {
	// Store writes data at key, replacing any existing content. Readers never
	// observe a partially written file.
	Store(ctx context.Context, key string, data []byte) error

	// Retrieve returns the content at key, or ErrNotFound.
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Validate reports whether key exists.
	Validate(ctx context.Context, key string) (bool, error)

	// Path resolves key to its absolute location without touching the disk.
	Path(ctx context.Context, key string) (string, error)

	// Start registers creation of the storage root as a startup hook.
	Start(lc *lifecycle.Coordinator) error
}
