// Package blob defines the key-value contract the diagram store persists
// through, along with its backends.
//
// A blob store maps a string key to an opaque byte slice. Keys used by the
// diagram store have the form "workspace:<id>" (see [Key]). Backends:
//
//   - [Memory]: in-process map, used by tests and ephemeral servers
//   - [File]: one file per key under a directory, used by the CLI
//   - [SQLite]: a single table in a local SQLite database
//   - [Redis]: shared storage for server replicas
//   - [Mongo]: a MongoDB collection
//
// All backends return [ErrNotFound] from Get when the key does not exist.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no blob is stored under the key.
var ErrNotFound = errors.New("blob not found")

// Store is the external key-value blob store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key returns the blob key of a workspace's diagram.
func Key(workspaceID string) string {
	return "workspace:" + workspaceID
}
