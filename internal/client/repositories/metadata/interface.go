package metadata

import "context"

// KeyLastSyncAt stores the watermark bounding the next pull.
const KeyLastSyncAt = "last_sync_at"

// Repository is a small durable key/value store for client-side sync state,
// most importantly the lastSyncAt watermark.
type Repository interface {
	// Get returns the value for key, or nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set inserts or overwrites the value for key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the key if present.
	Delete(ctx context.Context, key string) error
}
