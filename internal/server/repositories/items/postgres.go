// Package items provides the PostgreSQL-backed repository for authoritative
// item storage and sync snapshot queries.
package items

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notico/internal/common"
	"github.com/dmitrijs2005/notico/internal/dbx"
	"github.com/dmitrijs2005/notico/internal/protocol"
)

// PostgresRepository implements item storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const itemColumns = `id, client_id, type, title, content, url, reminder_date, reminder_completed,
		tags, pinned, color, folder_id, deleted, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*protocol.Item, error) {
	var it protocol.Item
	var reminder sql.NullTime
	var tags []byte
	if err := row.Scan(
		&it.ServerID, &it.ClientID, &it.Type, &it.Title, &it.Content, &it.URL,
		&reminder, &it.ReminderCompleted, &tags, &it.Pinned, &it.Color,
		&it.FolderID, &it.Deleted, &it.CreatedAt, &it.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if reminder.Valid {
		t := reminder.Time
		it.ReminderDate = &t
	}
	if err := json.Unmarshal(tags, &it.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return &it, nil
}

func encodeTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

// GetByClientID returns the item with the given clientId, tombstoned or not.
func (r *PostgresRepository) GetByClientID(ctx context.Context, clientID string) (*protocol.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE client_id=$1`
	it, err := scanItem(r.db.QueryRowContext(ctx, query, clientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return it, nil
}

// Insert stores a new item and assigns its server id.
func (r *PostgresRepository) Insert(ctx context.Context, item *protocol.Item) error {
	tags, err := encodeTags(item.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	query := `
		INSERT INTO items (client_id, type, title, content, url, reminder_date, reminder_completed,
			tags, pinned, color, folder_id, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query,
		item.ClientID, item.Type, item.Title, item.Content, item.URL,
		item.ReminderDate, item.ReminderCompleted, tags, item.Pinned, item.Color,
		item.FolderID, item.Deleted, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ServerID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Save fully replaces the stored row identified by the item's clientId.
func (r *PostgresRepository) Save(ctx context.Context, item *protocol.Item) error {
	tags, err := encodeTags(item.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	query := `
		UPDATE items SET type=$2, title=$3, content=$4, url=$5, reminder_date=$6,
			reminder_completed=$7, tags=$8, pinned=$9, color=$10, folder_id=$11,
			deleted=$12, updated_at=$13
		WHERE client_id=$1
	`
	res, err := r.db.ExecContext(ctx, query,
		item.ClientID, item.Type, item.Title, item.Content, item.URL,
		item.ReminderDate, item.ReminderCompleted, tags, item.Pinned, item.Color,
		item.FolderID, item.Deleted, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

// SoftDelete tombstones the item; the row stays so the deletion propagates to
// every replica through snapshot pulls.
func (r *PostgresRepository) SoftDelete(ctx context.Context, clientID string, at time.Time) error {
	query := `UPDATE items SET deleted=TRUE, updated_at=$2 WHERE client_id=$1`
	res, err := r.db.ExecContext(ctx, query, clientID, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

// SelectUpdatedSince returns items with updated_at at or after since,
// tombstones included. A nil since returns everything.
func (r *PostgresRepository) SelectUpdatedSince(ctx context.Context, since *time.Time) ([]protocol.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE updated_at>=$1 ORDER BY updated_at`
	var args []any
	if since == nil {
		query = `SELECT ` + itemColumns + ` FROM items ORDER BY updated_at`
	} else {
		args = append(args, *since)
	}
	return r.selectItems(ctx, query, args...)
}

// SelectLive returns all non-tombstoned items.
func (r *PostgresRepository) SelectLive(ctx context.Context) ([]protocol.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE deleted=FALSE ORDER BY updated_at`
	return r.selectItems(ctx, query)
}

// TombstoneByFolder tombstones every live item referencing the folder. Zero
// affected rows is not an error; empty folders delete cleanly.
func (r *PostgresRepository) TombstoneByFolder(ctx context.Context, folderClientID string, at time.Time) error {
	query := `UPDATE items SET deleted=TRUE, updated_at=$2 WHERE folder_id=$1 AND deleted=FALSE`
	if _, err := r.db.ExecContext(ctx, query, folderClientID, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) selectItems(ctx context.Context, query string, args ...any) ([]protocol.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}
	defer rows.Close()

	var result []protocol.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
