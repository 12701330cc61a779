package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notico/internal/client/models"
	"github.com/dmitrijs2005/notico/internal/client/repositories/folders"
	"github.com/dmitrijs2005/notico/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/notico/internal/protocol"
	"github.com/google/uuid"
)

// FolderService mirrors ItemService for folders. A folder delete only
// tombstones the folder locally; the cascade over its items is a server-side
// step whose effects arrive with the next snapshot pull.
type FolderService struct {
	folders folders.Repository
	outbox  outbox.Repository
	notify  func()
}

func NewFolderService(folderRepo folders.Repository, outboxRepo outbox.Repository, notify func()) *FolderService {
	if notify == nil {
		notify = func() {}
	}
	return &FolderService{folders: folderRepo, outbox: outboxRepo, notify: notify}
}

// Create assigns a fresh clientId and timestamps, stores the folder and
// queues a create operation.
func (s *FolderService) Create(ctx context.Context, f *protocol.Folder) error {
	now := time.Now().UTC()
	f.ClientID = uuid.NewString()
	f.ServerID = ""
	f.Deleted = false
	f.CreatedAt = now
	f.UpdatedAt = now

	if err := s.folders.Upsert(ctx, f); err != nil {
		return fmt.Errorf("saving error: %w", err)
	}

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode folder: %w", err)
	}
	if err := s.enqueue(ctx, protocol.ActionCreate, f.ClientID, data); err != nil {
		return err
	}

	s.notify()
	return nil
}

// Update applies a field patch locally and queues it.
func (s *FolderService) Update(ctx context.Context, clientID string, patch protocol.FolderPatch) (*protocol.Folder, error) {
	f, err := s.folders.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving folder: %w", err)
	}

	now := time.Now().UTC()
	patch.UpdatedAt = &now
	patch.Apply(f)

	if err := s.folders.Upsert(ctx, f); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}

	data, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patch: %w", err)
	}
	if err := s.enqueue(ctx, protocol.ActionUpdate, clientID, data); err != nil {
		return nil, err
	}

	s.notify()
	return f, nil
}

// Delete tombstones the folder locally and queues a delete operation. Items
// referencing the folder stay live until the server applies the cascade and
// the tombstones come back with the snapshot.
func (s *FolderService) Delete(ctx context.Context, clientID string) error {
	if err := s.folders.Tombstone(ctx, clientID, time.Now().UTC()); err != nil {
		return fmt.Errorf("error deleting folder: %w", err)
	}
	if err := s.enqueue(ctx, protocol.ActionDelete, clientID, nil); err != nil {
		return err
	}

	s.notify()
	return nil
}

// List reads the local replica.
func (s *FolderService) List(ctx context.Context) ([]protocol.Folder, error) {
	result, err := s.folders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing folders: %w", err)
	}
	return result, nil
}

func (s *FolderService) enqueue(ctx context.Context, action protocol.Action, clientID string, data []byte) error {
	entry := &models.OutboxEntry{
		Entity:   models.EntityFolder,
		Action:   action,
		ClientID: clientID,
		Data:     data,
	}
	if err := s.outbox.Enqueue(ctx, entry); err != nil {
		return fmt.Errorf("error queueing operation: %w", err)
	}
	return nil
}
