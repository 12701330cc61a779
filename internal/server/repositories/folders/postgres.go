// Package folders provides the PostgreSQL-backed repository for
// authoritative folder storage.
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

// PostgresRepository implements folder storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const folderColumns = `id, client_id, name, color, deleted, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFolder(row rowScanner) (*protocol.Folder, error) {
	var f protocol.Folder
	if err := row.Scan(
		&f.ServerID, &f.ClientID, &f.Name, &f.Color, &f.Deleted, &f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByClientID returns the folder with the given clientId, tombstoned or not.
func (r *PostgresRepository) GetByClientID(ctx context.Context, clientID string) (*protocol.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE client_id=$1`
	f, err := scanFolder(r.db.QueryRowContext(ctx, query, clientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

// Insert stores a new folder and assigns its server id.
func (r *PostgresRepository) Insert(ctx context.Context, folder *protocol.Folder) error {
	query := `
		INSERT INTO folders (client_id, name, color, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query,
		folder.ClientID, folder.Name, folder.Color, folder.Deleted, folder.CreatedAt, folder.UpdatedAt,
	).Scan(&folder.ServerID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Save fully replaces the stored row identified by the folder's clientId.
func (r *PostgresRepository) Save(ctx context.Context, folder *protocol.Folder) error {
	query := `UPDATE folders SET name=$2, color=$3, deleted=$4, updated_at=$5 WHERE client_id=$1`
	res, err := r.db.ExecContext(ctx, query,
		folder.ClientID, folder.Name, folder.Color, folder.Deleted, folder.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

// SoftDelete tombstones the folder. The cascade over its items is the sync
// service's job, inside the same transaction.
func (r *PostgresRepository) SoftDelete(ctx context.Context, clientID string, at time.Time) error {
	query := `UPDATE folders SET deleted=TRUE, updated_at=$2 WHERE client_id=$1`
	res, err := r.db.ExecContext(ctx, query, clientID, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

// SelectUpdatedSince returns folders with updated_at at or after since,
// tombstones included. A nil since returns everything.
func (r *PostgresRepository) SelectUpdatedSince(ctx context.Context, since *time.Time) ([]protocol.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE updated_at>=$1 ORDER BY updated_at`
	var args []any
	if since == nil {
		query = `SELECT ` + folderColumns + ` FROM folders ORDER BY updated_at`
	} else {
		args = append(args, *since)
	}
	return r.selectFolders(ctx, query, args...)
}

// SelectLive returns all non-tombstoned folders.
func (r *PostgresRepository) SelectLive(ctx context.Context) ([]protocol.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE deleted=FALSE ORDER BY name`
	return r.selectFolders(ctx, query)
}

func (r *PostgresRepository) selectFolders(ctx context.Context, query string, args ...any) ([]protocol.Folder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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
