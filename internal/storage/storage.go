package storage

import (
	"context"
	"io"
)

// BlobStore is the opaque byte store behind the vault. Keys are opaque
// strings chosen by the caller; implementations must not interpret them.
type BlobStore interface {
	// Put streams r to the blob under key and returns the byte count
	// written. A partial write that errors must not leave a readable
	// blob behind; callers still issue a best-effort Delete on failure.
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
	// Open returns a reader over the blob. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
