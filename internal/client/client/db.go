package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/notico/internal/client/migrations"
	"github.com/dmitrijs2005/notico/internal/client/repositories/folders"
	"github.com/dmitrijs2005/notico/internal/client/repositories/items"
	"github.com/dmitrijs2005/notico/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/notico/internal/client/repositories/outbox"
	"github.com/pressly/goose/v3"
)

// Repositories bundles the local replica's storage layers. The local store
// owns entity rows, the outbox owns pending intents; callers reach both only
// through the services built on top.
type Repositories struct {
	Items    items.Repository
	Folders  folders.Repository
	Outbox   outbox.Repository
	Metadata metadata.Repository
	DB       *sql.DB
}

// RunMigrations applies the embedded goose migrations to the local database.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite replica, applies migrations and wires the
// repositories.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocalDataNotAvailable, err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &Repositories{
		Items:    items.NewSQLiteRepository(db),
		Folders:  folders.NewSQLiteRepository(db),
		Outbox:   outbox.NewSQLiteRepository(db),
		Metadata: metadata.NewSQLiteRepository(db),
		DB:       db,
	}, nil
}
