package items

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/notico/internal/client/models"
	"github.com/dmitrijs2005/notico/internal/common"
	"github.com/dmitrijs2005/notico/internal/dbx"
	"github.com/dmitrijs2005/notico/internal/protocol"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const itemColumns = `client_id, server_id, type, title, content, url,
	reminder_date, reminder_completed, tags, pinned, color, folder_id,
	deleted, created_at, updated_at`

// Upsert inserts or fully overwrites an item by clientId.
func (r *SQLiteRepository) Upsert(ctx context.Context, it *protocol.Item) error {
	tags, err := json.Marshal(it.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `INSERT INTO items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET
			server_id = excluded.server_id,
			type = excluded.type,
			title = excluded.title,
			content = excluded.content,
			url = excluded.url,
			reminder_date = excluded.reminder_date,
			reminder_completed = excluded.reminder_completed,
			tags = excluded.tags,
			pinned = excluded.pinned,
			color = excluded.color,
			folder_id = excluded.folder_id,
			deleted = excluded.deleted,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		it.ClientID, it.ServerID, it.Type, it.Title, it.Content, it.URL,
		fmtNullTime(it.ReminderDate), it.ReminderCompleted, string(tags),
		it.Pinned, it.Color, it.FolderID, it.Deleted,
		fmtTime(it.CreatedAt), fmtTime(it.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}
	return nil
}

// GetByClientID returns a single item, tombstoned or not.
func (r *SQLiteRepository) GetByClientID(ctx context.Context, clientID string) (*protocol.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE client_id = ?`
	it, err := scanItem(r.db.QueryRowContext(ctx, query, clientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return it, nil
}

// List returns live items matching the filter, pinned first then most
// recently updated. Type and folder predicates are pushed into SQL; search
// terms are matched in Go because tags live in a JSON column.
func (r *SQLiteRepository) List(ctx context.Context, filter models.ListFilter) ([]protocol.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE deleted = 0`
	args := []any{}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, filter.Type)
	}
	if filter.FolderID != "" {
		query += ` AND folder_id = ?`
		args = append(args, filter.FolderID)
	}
	query += ` ORDER BY pinned DESC, updated_at DESC`

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
		if matchesTerms(it, filter.SearchTerms) {
			result = append(result, *it)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Tombstone soft-deletes an item. It expects exactly one row to be affected.
func (r *SQLiteRepository) Tombstone(ctx context.Context, clientID string, at time.Time) error {
	query := `UPDATE items SET deleted = 1, updated_at = ? WHERE client_id = ? AND deleted = 0`
	res, err := r.db.ExecContext(ctx, query, fmtTime(at), clientID)
	if err != nil {
		return fmt.Errorf("failed to tombstone item: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrorNotFound
	}
	return nil
}

// matchesTerms requires every term to occur, case-insensitively, in the
// concatenation of title, content, tags and url.
func matchesTerms(it *protocol.Item, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	searchable := strings.ToLower(it.Title + " " + it.Content + " " + strings.Join(it.Tags, " ") + " " + it.URL)
	for _, term := range terms {
		if !strings.Contains(searchable, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*protocol.Item, error) {
	var (
		it       protocol.Item
		reminder sql.NullString
		tags     string
		created  string
		updated  string
	)
	if err := row.Scan(&it.ClientID, &it.ServerID, &it.Type, &it.Title, &it.Content, &it.URL,
		&reminder, &it.ReminderCompleted, &tags, &it.Pinned, &it.Color, &it.FolderID,
		&it.Deleted, &created, &updated); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &it.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}

	var err error
	if it.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if it.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if reminder.Valid {
		ts, err := parseTime(reminder.String)
		if err != nil {
			return nil, err
		}
		it.ReminderDate = &ts
	}
	return &it, nil
}

// timeLayout keeps a fixed-width fractional part so lexicographic order of
// stored timestamps equals chronological order (ORDER BY relies on it).
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func fmtNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
