package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/notico/internal/dbx"
	"github.com/dmitrijs2005/notico/internal/server/repositories/folders"
	"github.com/dmitrijs2005/notico/internal/server/repositories/items"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Items(db dbx.DBTX) items.Repository
	Folders(db dbx.DBTX) folders.Repository
}
