package outbox

import (
	"context"

	"github.com/dmitrijs2005/notico/internal/client/models"
)

// Repository is the append-only log of not-yet-transmitted mutations.
// Entries survive process restarts and are only ever discarded via Clear
// after a completed sync exchange.
type Repository interface {
	// Enqueue appends an entry. QueuedAt is assigned here and is
	// monotonically increasing within the queue.
	Enqueue(ctx context.Context, entry *models.OutboxEntry) error

	// DrainOrdered returns all entries oldest-first without removing them.
	DrainOrdered(ctx context.Context) ([]models.OutboxEntry, error)

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// PendingClientIDs returns the set of clientIds with at least one
	// queued entry. Used by the bootstrap pull to protect unsent edits.
	PendingClientIDs(ctx context.Context) (map[string]struct{}, error)

	// Count reports the number of queued entries.
	Count(ctx context.Context) (int, error)
}
