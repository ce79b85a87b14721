package blobstore

import "context"

// BlobStore is a key-addressable store for cache record blobs.
// Implementations must be safe for concurrent use.
//
// Records are small enough (a few MB for tens of thousands of reference
// embeddings) that they are always read and written whole; there is no
// partial-read API.
type BlobStore interface {
	// Get reads the blob with the given name.
	// Returns an error satisfying errors.Is(err, ErrNotFound) if it does not exist.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put writes a blob atomically, replacing any existing blob of that name.
	// Readers never observe a partially written blob.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
