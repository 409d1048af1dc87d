// Package media stores uploaded child photos.
package media

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no object exists under a key.
var ErrNotFound = errors.New("media object not found")

// Store persists uploaded media objects. Keys are opaque paths such as
// "children_photos/3/portrait.jpg".
type Store interface {
	// Put stores an object under the key, replacing any existing one.
	Put(ctx context.Context, key string, contentType string, body io.Reader) error
	// Get opens the object stored under the key. The caller must close
	// the returned reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
}
