// Package services holds the server-side application logic: single-entity
// operations shared between the REST surface and the batched sync exchange,
// and the exchange itself.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notico/internal/dbx"
	"github.com/dmitrijs2005/notico/internal/protocol"
	"github.com/dmitrijs2005/notico/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// EntityService applies single-entity mutations against authoritative
// storage. Every mutation is stamped with the server clock so watermark
// queries across devices compare consistent timestamps.
type EntityService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewEntityService(db *sql.DB, repomanager repomanager.RepositoryManager) *EntityService {
	return &EntityService{
		db:          db,
		repomanager: repomanager,
	}
}

// CreateItem inserts the item, assigning a clientId when the caller sent
// none. A create whose clientId already exists is an idempotent no-op: the
// stored entity is returned unmodified with created=false.
func (s *EntityService) CreateItem(ctx context.Context, it *protocol.Item) (result *protocol.Item, created bool, err error) {
	repo := s.repomanager.Items(s.db)

	if it.ClientID != "" {
		existing, err := repo.GetByClientID(ctx, it.ClientID)
		if err == nil {
			return existing, false, nil
		}
		if !isNotFound(err) {
			return nil, false, err
		}
	} else {
		it.ClientID = uuid.NewString()
	}

	now := time.Now().UTC()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.UpdatedAt = now
	if err := repo.Insert(ctx, it); err != nil {
		return nil, false, fmt.Errorf("failed to insert item: %w", err)
	}
	return it, true, nil
}

// PatchItem applies a partial update to the stored item. The server clock
// overrides any updatedAt the patch carries.
func (s *EntityService) PatchItem(ctx context.Context, clientID string, patch protocol.ItemPatch) (*protocol.Item, error) {
	repo := s.repomanager.Items(s.db)

	it, err := repo.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	patch.Apply(it)
	it.UpdatedAt = time.Now().UTC()
	if err := repo.Save(ctx, it); err != nil {
		return nil, fmt.Errorf("failed to save item: %w", err)
	}
	return it, nil
}

// DeleteItem tombstones the item.
func (s *EntityService) DeleteItem(ctx context.Context, clientID string) error {
	return s.repomanager.Items(s.db).SoftDelete(ctx, clientID, time.Now().UTC())
}

// ListLiveItems returns all non-tombstoned items (the bootstrap pull).
func (s *EntityService) ListLiveItems(ctx context.Context) ([]protocol.Item, error) {
	return s.repomanager.Items(s.db).SelectLive(ctx)
}

// CreateFolder mirrors CreateItem for folders.
func (s *EntityService) CreateFolder(ctx context.Context, f *protocol.Folder) (result *protocol.Folder, created bool, err error) {
	repo := s.repomanager.Folders(s.db)

	if f.ClientID != "" {
		existing, err := repo.GetByClientID(ctx, f.ClientID)
		if err == nil {
			return existing, false, nil
		}
		if !isNotFound(err) {
			return nil, false, err
		}
	} else {
		f.ClientID = uuid.NewString()
	}

	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	if err := repo.Insert(ctx, f); err != nil {
		return nil, false, fmt.Errorf("failed to insert folder: %w", err)
	}
	return f, true, nil
}

// PatchFolder applies a partial update to the stored folder.
func (s *EntityService) PatchFolder(ctx context.Context, clientID string, patch protocol.FolderPatch) (*protocol.Folder, error) {
	repo := s.repomanager.Folders(s.db)

	f, err := repo.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	patch.Apply(f)
	f.UpdatedAt = time.Now().UTC()
	if err := repo.Save(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to save folder: %w", err)
	}
	return f, nil
}

// DeleteFolder tombstones the folder and cascades over its live items in one
// transaction. Both the folder and the items get the same timestamp, so a
// watermark query always sees the cascade as a unit.
func (s *EntityService) DeleteFolder(ctx context.Context, clientID string) error {
	now := time.Now().UTC()
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Folders(tx).SoftDelete(ctx, clientID, now); err != nil {
			return err
		}
		return s.repomanager.Items(tx).TombstoneByFolder(ctx, clientID, now)
	})
}

// ListLiveFolders returns all non-tombstoned folders.
func (s *EntityService) ListLiveFolders(ctx context.Context) ([]protocol.Folder, error) {
	return s.repomanager.Folders(s.db).SelectLive(ctx)
}
