package folders

import (
	"context"
	"time"

	"github.com/dmitrijs2005/notico/internal/protocol"
)

// Repository describes storage operations for folders in the local replica.
type Repository interface {
	// Upsert inserts the folder if absent, otherwise overwrites every field.
	Upsert(ctx context.Context, folder *protocol.Folder) error

	// GetByClientID returns a folder (tombstoned or not) by its clientId,
	// or common.ErrorNotFound.
	GetByClientID(ctx context.Context, clientID string) (*protocol.Folder, error)

	// List returns non-tombstoned folders sorted by name.
	List(ctx context.Context) ([]protocol.Folder, error)

	// Tombstone marks the folder deleted and bumps updatedAt.
	Tombstone(ctx context.Context, clientID string, at time.Time) error
}
