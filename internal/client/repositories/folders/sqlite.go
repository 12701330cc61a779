package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

// Upsert inserts or fully overwrites a folder by clientId.
func (r *SQLiteRepository) Upsert(ctx context.Context, f *protocol.Folder) error {
	query := `INSERT INTO folders (client_id, server_id, name, color, deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET
			server_id = excluded.server_id,
			name = excluded.name,
			color = excluded.color,
			deleted = excluded.deleted,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		f.ClientID, f.ServerID, f.Name, f.Color, f.Deleted,
		fmtTime(f.CreatedAt), fmtTime(f.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert folder: %w", err)
	}
	return nil
}

// GetByClientID returns a single folder, tombstoned or not.
func (r *SQLiteRepository) GetByClientID(ctx context.Context, clientID string) (*protocol.Folder, error) {
	query := `SELECT client_id, server_id, name, color, deleted, created_at, updated_at
		FROM folders WHERE client_id = ?`
	f, err := scanFolder(r.db.QueryRowContext(ctx, query, clientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	return f, nil
}

// List returns live folders ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]protocol.Folder, error) {
	query := `SELECT client_id, server_id, name, color, deleted, created_at, updated_at
		FROM folders WHERE deleted = 0 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	defer rows.Close()

	var result []protocol.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Tombstone soft-deletes a folder. It expects exactly one row to be affected.
func (r *SQLiteRepository) Tombstone(ctx context.Context, clientID string, at time.Time) error {
	query := `UPDATE folders SET deleted = 1, updated_at = ? WHERE client_id = ? AND deleted = 0`
	res, err := r.db.ExecContext(ctx, query, fmtTime(at), clientID)
	if err != nil {
		return fmt.Errorf("failed to tombstone folder: %w", err)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFolder(row rowScanner) (*protocol.Folder, error) {
	var (
		f       protocol.Folder
		created string
		updated string
	)
	if err := row.Scan(&f.ClientID, &f.ServerID, &f.Name, &f.Color, &f.Deleted, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if f.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if f.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &f, nil
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
