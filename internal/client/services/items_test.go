package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dmitrijs2005/notico/internal/client/models"
	"github.com/dmitrijs2005/notico/internal/common"
	"github.com/dmitrijs2005/notico/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemCreate_StoresLocallyAndQueues(t *testing.T) {
	repos := setupRepos(t)
	notified := 0
	s := NewItemService(repos.Items, repos.Outbox, func() { notified++ })
	ctx := context.Background()

	it := &protocol.Item{Type: "note", Title: "hello"}
	require.NoError(t, s.Create(ctx, it))

	require.NotEmpty(t, it.ClientID)
	assert.False(t, it.CreatedAt.IsZero())
	assert.Equal(t, it.CreatedAt, it.UpdatedAt)
	assert.Equal(t, 1, notified)

	stored, err := repos.Items.GetByClientID(ctx, it.ClientID)
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Title)

	entries, err := repos.Outbox.DrainOrdered(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, protocol.ActionCreate, entries[0].Action)
	assert.Equal(t, it.ClientID, entries[0].ClientID)

	// create entries carry the full entity
	var queued protocol.Item
	require.NoError(t, json.Unmarshal(entries[0].Data, &queued))
	assert.Equal(t, "hello", queued.Title)
}

func TestItemUpdate_AppliesPatchAndQueuesPatch(t *testing.T) {
	repos := setupRepos(t)
	s := NewItemService(repos.Items, repos.Outbox, nil)
	ctx := context.Background()

	it := &protocol.Item{Type: "note", Title: "before"}
	require.NoError(t, s.Create(ctx, it))

	title := "after"
	pinned := true
	updated, err := s.Update(ctx, it.ClientID, protocol.ItemPatch{Title: &title, Pinned: &pinned})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Title)
	assert.True(t, updated.Pinned)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))

	entries, err := repos.Outbox.DrainOrdered(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, protocol.ActionUpdate, entries[1].Action)

	// update entries carry only the patch
	var patch map[string]any
	require.NoError(t, json.Unmarshal(entries[1].Data, &patch))
	assert.Contains(t, patch, "title")
	assert.NotContains(t, patch, "content")
}

func TestItemUpdate_NotFound(t *testing.T) {
	repos := setupRepos(t)
	s := NewItemService(repos.Items, repos.Outbox, nil)

	title := "x"
	_, err := s.Update(context.Background(), "missing", protocol.ItemPatch{Title: &title})
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestItemDelete_TombstonesAndQueues(t *testing.T) {
	repos := setupRepos(t)
	s := NewItemService(repos.Items, repos.Outbox, nil)
	ctx := context.Background()

	it := &protocol.Item{Type: "note", Title: "bye"}
	require.NoError(t, s.Create(ctx, it))
	require.NoError(t, s.Delete(ctx, it.ClientID))

	stored, err := repos.Items.GetByClientID(ctx, it.ClientID)
	require.NoError(t, err)
	assert.True(t, stored.Deleted)

	// tombstoned items disappear from the read path
	list, err := s.List(ctx, models.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	entries, err := repos.Outbox.DrainOrdered(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, protocol.ActionDelete, entries[1].Action)
	assert.Empty(t, entries[1].Data)
}

func TestFolderDelete_DoesNotTouchItemsLocally(t *testing.T) {
	repos := setupRepos(t)
	folderSvc := NewFolderService(repos.Folders, repos.Outbox, nil)
	itemSvc := NewItemService(repos.Items, repos.Outbox, nil)
	ctx := context.Background()

	f := &protocol.Folder{Name: "Work"}
	require.NoError(t, folderSvc.Create(ctx, f))

	it := &protocol.Item{Type: "note", Title: "in folder", FolderID: f.ClientID}
	require.NoError(t, itemSvc.Create(ctx, it))

	require.NoError(t, folderSvc.Delete(ctx, f.ClientID))

	// the cascade is server-side; the local item stays live until the
	// tombstone arrives with a snapshot
	stored, err := repos.Items.GetByClientID(ctx, it.ClientID)
	require.NoError(t, err)
	assert.False(t, stored.Deleted)
}
