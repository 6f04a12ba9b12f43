// Package blob provides keyed content storage for manifest bodies,
// archive snapshots, and job summaries.
package blob

import (
	"context"
	"errors"
)

// ErrNotExist is returned when a key has no stored content.
var ErrNotExist = errors.New("blob: key does not exist")

// Store is a keyed blob store. Keys are slash-separated paths; writers to
// the same key converge to the last written content.
type Store interface {
	// Get returns the content stored at key, or ErrNotExist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores content at key with a content type and a small metadata map.
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error

	// Delete removes the content at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all keys with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
