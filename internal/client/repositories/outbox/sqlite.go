package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notico/internal/client/models"
	"github.com/dmitrijs2005/notico/internal/dbx"
	"github.com/dmitrijs2005/notico/internal/protocol"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
// Ordering is backed by the AUTOINCREMENT rowid, so entries enqueued within
// the same clock tick still drain in enqueue order.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Enqueue appends an entry and stamps QueuedAt.
func (r *SQLiteRepository) Enqueue(ctx context.Context, e *models.OutboxEntry) error {
	e.QueuedAt = time.Now().UTC()
	query := `INSERT INTO outbox (entity, action, client_id, data, queued_at) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, e.Entity, string(e.Action), e.ClientID, e.Data, e.QueuedAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to enqueue operation: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to get outbox id: %w", err)
	}
	return nil
}

// DrainOrdered returns every entry, oldest first. The queue is left intact;
// only Clear removes entries.
func (r *SQLiteRepository) DrainOrdered(ctx context.Context) ([]models.OutboxEntry, error) {
	query := `SELECT id, entity, action, client_id, data, queued_at FROM outbox ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select outbox: %w", err)
	}
	defer rows.Close()

	var result []models.OutboxEntry
	for rows.Next() {
		var (
			e      models.OutboxEntry
			action string
			queued string
		)
		if err := rows.Scan(&e.ID, &e.Entity, &action, &e.ClientID, &e.Data, &queued); err != nil {
			return nil, err
		}
		e.Action = protocol.Action(action)
		if e.QueuedAt, err = time.Parse(time.RFC3339Nano, queued); err != nil {
			return nil, fmt.Errorf("failed to parse queued_at %q: %w", queued, err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Clear removes all entries.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM outbox`); err != nil {
		return fmt.Errorf("failed to clear outbox: %w", err)
	}
	return nil
}

// PendingClientIDs returns the distinct clientIds currently queued.
func (r *SQLiteRepository) PendingClientIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT client_id FROM outbox`)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending ids: %w", err)
	}
	defer rows.Close()

	result := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Count reports the number of queued entries.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count outbox: %w", err)
	}
	return n, nil
}
