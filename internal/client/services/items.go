package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notico/internal/client/models"
	"github.com/dmitrijs2005/notico/internal/client/repositories/items"
	"github.com/dmitrijs2005/notico/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/notico/internal/protocol"
	"github.com/google/uuid"
)

// ItemService is the write/read path for items against the local replica.
// Every mutation lands in the local store synchronously, queues its intent in
// the outbox and notifies the trigger; nothing here waits on the network.
type ItemService struct {
	items  items.Repository
	outbox outbox.Repository
	notify func()
}

// NewItemService wires the service. notify is invoked after every successful
// local mutation (the debounced sync trigger); it may be nil.
func NewItemService(itemRepo items.Repository, outboxRepo outbox.Repository, notify func()) *ItemService {
	if notify == nil {
		notify = func() {}
	}
	return &ItemService{items: itemRepo, outbox: outboxRepo, notify: notify}
}

// Create assigns a fresh clientId and timestamps, stores the item and queues
// a create operation carrying the full entity.
func (s *ItemService) Create(ctx context.Context, it *protocol.Item) error {
	now := time.Now().UTC()
	it.ClientID = uuid.NewString()
	it.ServerID = ""
	it.Deleted = false
	it.CreatedAt = now
	it.UpdatedAt = now
	if it.Tags == nil {
		it.Tags = []string{}
	}

	if err := s.items.Upsert(ctx, it); err != nil {
		return fmt.Errorf("saving error: %w", err)
	}

	data, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("failed to encode item: %w", err)
	}
	if err := s.enqueue(ctx, protocol.ActionCreate, it.ClientID, data); err != nil {
		return err
	}

	s.notify()
	return nil
}

// Update applies a field patch locally and queues an update operation
// carrying just the patch. The patch's UpdatedAt is stamped here.
func (s *ItemService) Update(ctx context.Context, clientID string, patch protocol.ItemPatch) (*protocol.Item, error) {
	it, err := s.items.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving item: %w", err)
	}

	now := time.Now().UTC()
	patch.UpdatedAt = &now
	patch.Apply(it)

	if err := s.items.Upsert(ctx, it); err != nil {
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
	return it, nil
}

// Delete tombstones the item locally and queues a delete operation.
func (s *ItemService) Delete(ctx context.Context, clientID string) error {
	if err := s.items.Tombstone(ctx, clientID, time.Now().UTC()); err != nil {
		return fmt.Errorf("error deleting item: %w", err)
	}
	if err := s.enqueue(ctx, protocol.ActionDelete, clientID, nil); err != nil {
		return err
	}

	s.notify()
	return nil
}

// List reads the local replica; it never touches the network.
func (s *ItemService) List(ctx context.Context, filter models.ListFilter) ([]protocol.Item, error) {
	result, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing items: %w", err)
	}
	return result, nil
}

// Get returns a single item by clientId.
func (s *ItemService) Get(ctx context.Context, clientID string) (*protocol.Item, error) {
	it, err := s.items.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving item: %w", err)
	}
	return it, nil
}

func (s *ItemService) enqueue(ctx context.Context, action protocol.Action, clientID string, data []byte) error {
	entry := &models.OutboxEntry{
		Entity:   models.EntityItem,
		Action:   action,
		ClientID: clientID,
		Data:     data,
	}
	if err := s.outbox.Enqueue(ctx, entry); err != nil {
		return fmt.Errorf("error queueing operation: %w", err)
	}
	return nil
}
