package items

import (
	"context"
	"time"

	"github.com/dmitrijs2005/notico/internal/client/models"
	"github.com/dmitrijs2005/notico/internal/protocol"
)

// Repository describes storage operations for items in the local replica.
// Implementations are backed by a local SQLite database and must never
// depend on network state; every call completes synchronously.
type Repository interface {
	// Upsert inserts the item if absent, otherwise overwrites every field.
	// Partial merges never happen here; edits go through patches at the
	// service level before the full row is written back.
	Upsert(ctx context.Context, item *protocol.Item) error

	// GetByClientID returns an item (tombstoned or not) by its clientId,
	// or common.ErrorNotFound.
	GetByClientID(ctx context.Context, clientID string) (*protocol.Item, error)

	// List returns non-tombstoned items matching all filter predicates,
	// sorted pinned-first then by updatedAt descending.
	List(ctx context.Context, filter models.ListFilter) ([]protocol.Item, error)

	// Tombstone marks the item deleted and bumps updatedAt. The row is kept
	// so the delete can propagate like any other update.
	Tombstone(ctx context.Context, clientID string, at time.Time) error
}
