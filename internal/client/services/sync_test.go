package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/notico/internal/client/client"
	"github.com/dmitrijs2005/notico/internal/client/models"
	"github.com/dmitrijs2005/notico/internal/client/repositories/folders"
	"github.com/dmitrijs2005/notico/internal/client/repositories/items"
	"github.com/dmitrijs2005/notico/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/notico/internal/client/repositories/outbox"
	"github.com/dmitrijs2005/notico/internal/common"
	"github.com/dmitrijs2005/notico/internal/logging"
	"github.com/dmitrijs2005/notico/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupRepos(t *testing.T) *client.Repositories {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE items (
  client_id TEXT PRIMARY KEY,
  server_id TEXT NOT NULL DEFAULT '',
  type TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  content TEXT NOT NULL DEFAULT '',
  url TEXT NOT NULL DEFAULT '',
  reminder_date TEXT,
  reminder_completed INTEGER NOT NULL DEFAULT 0,
  tags TEXT NOT NULL DEFAULT '[]',
  pinned INTEGER NOT NULL DEFAULT 0,
  color TEXT NOT NULL DEFAULT '',
  folder_id TEXT NOT NULL DEFAULT '',
  deleted INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE folders (
  client_id TEXT PRIMARY KEY,
  server_id TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL,
  color TEXT NOT NULL DEFAULT '',
  deleted INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE outbox (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  entity TEXT NOT NULL,
  action TEXT NOT NULL,
  client_id TEXT NOT NULL,
  data BLOB,
  queued_at TEXT NOT NULL
);

CREATE TABLE metadata (
  key TEXT PRIMARY KEY,
  value BLOB
);
`)
	require.NoError(t, err)

	return &client.Repositories{
		Items:    items.NewSQLiteRepository(db),
		Folders:  folders.NewSQLiteRepository(db),
		Outbox:   outbox.NewSQLiteRepository(db),
		Metadata: metadata.NewSQLiteRepository(db),
		DB:       db,
	}
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []protocol.SyncRequest

	resp    *protocol.SyncResponse
	syncErr error

	pullItems   []protocol.Item
	pullFolders []protocol.Folder

	// when set, Sync signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func (f *fakeAPI) Close() error               { return nil }
func (f *fakeAPI) Ping(context.Context) error { return nil }

func (f *fakeAPI) Sync(ctx context.Context, req protocol.SyncRequest) (*protocol.SyncResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	f.mu.Lock()
	entered := f.entered
	f.entered = nil
	f.mu.Unlock()
	if entered != nil {
		close(entered)
		<-f.release
	}
	if f.syncErr != nil {
		return nil, f.syncErr
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &protocol.SyncResponse{SyncedAt: time.Now().UTC()}, nil
}

func (f *fakeAPI) PullItems(ctx context.Context) ([]protocol.Item, error) {
	return f.pullItems, nil
}

func (f *fakeAPI) PullFolders(ctx context.Context) ([]protocol.Folder, error) {
	return f.pullFolders, nil
}

func (f *fakeAPI) lastRequest(t *testing.T) protocol.SyncRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func enqueue(t *testing.T, repos *client.Repositories, entity string, action protocol.Action, clientID string, data []byte) {
	t.Helper()
	require.NoError(t, repos.Outbox.Enqueue(context.Background(), &models.OutboxEntry{
		Entity:   entity,
		Action:   action,
		ClientID: clientID,
		Data:     data,
	}))
}

func TestSync_DedupToLatestAndFolderOpsFirst(t *testing.T) {
	repos := setupRepos(t)
	api := &fakeAPI{}
	s := NewSyncService(api, repos, testLogger(), nil)
	ctx := context.Background()

	// three edits to the same item collapse to the latest one
	enqueue(t, repos, models.EntityItem, protocol.ActionCreate, "i1", []byte(`{"title":"v1"}`))
	enqueue(t, repos, models.EntityItem, protocol.ActionUpdate, "i1", []byte(`{"title":"v2"}`))
	enqueue(t, repos, models.EntityItem, protocol.ActionDelete, "i1", nil)
	enqueue(t, repos, models.EntityItem, protocol.ActionCreate, "i2", []byte(`{"title":"other"}`))
	enqueue(t, repos, models.EntityFolder, protocol.ActionCreate, "f1", []byte(`{"name":"n"}`))

	report, err := s.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Sent)

	req := api.lastRequest(t)
	require.Len(t, req.FolderOperations, 1)
	assert.Equal(t, "f1", req.FolderOperations[0].ClientID)

	require.Len(t, req.Operations, 2)
	assert.Equal(t, "i1", req.Operations[0].ClientID)
	assert.Equal(t, protocol.ActionDelete, req.Operations[0].Action)
	assert.Equal(t, "i2", req.Operations[1].ClientID)
}

func TestSync_OutboxClearedEvenWithFailures(t *testing.T) {
	repos := setupRepos(t)
	api := &fakeAPI{
		resp: &protocol.SyncResponse{
			Results: []protocol.OpResult{
				{ClientID: "i1", Status: protocol.StatusNotFound},
				{ClientID: "i2", Status: protocol.StatusCreated},
			},
			SyncedAt: time.Now().UTC(),
		},
	}
	s := NewSyncService(api, repos, testLogger(), nil)
	ctx := context.Background()

	enqueue(t, repos, models.EntityItem, protocol.ActionUpdate, "i1", []byte(`{}`))
	enqueue(t, repos, models.EntityItem, protocol.ActionCreate, "i2", []byte(`{}`))

	report, err := s.Sync(ctx)
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "i1", report.Failures[0].ClientID)

	n, err := repos.Outbox.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "outbox must be cleared on any completed exchange")
}

func TestSync_TransportErrorKeepsOutbox(t *testing.T) {
	repos := setupRepos(t)
	api := &fakeAPI{syncErr: errors.New("connection refused")}
	s := NewSyncService(api, repos, testLogger(), nil)
	ctx := context.Background()

	enqueue(t, repos, models.EntityItem, protocol.ActionCreate, "i1", []byte(`{}`))

	_, err := s.Sync(ctx)
	require.Error(t, err)

	n, err := repos.Outbox.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSync_ServerWinsMergeAndWatermark(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// local copy that the snapshot will overwrite
	require.NoError(t, repos.Items.Upsert(ctx, &protocol.Item{
		ClientID: "i1", Type: "note", Title: "local title", CreatedAt: base, UpdatedAt: base,
	}))

	syncedAt := base.Add(time.Hour)
	api := &fakeAPI{
		resp: &protocol.SyncResponse{
			ServerItems: []protocol.Item{
				{ClientID: "i1", Type: "note", Title: "server title", CreatedAt: base, UpdatedAt: syncedAt},
				{ClientID: "i2", Type: "note", Title: "from other device", Deleted: true, CreatedAt: base, UpdatedAt: syncedAt},
			},
			ServerFolders: []protocol.Folder{
				{ClientID: "f1", Name: "Shared", CreatedAt: base, UpdatedAt: syncedAt},
			},
			SyncedAt: syncedAt,
		},
	}
	s := NewSyncService(api, repos, testLogger(), nil)

	report, err := s.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Pulled)

	got, err := repos.Items.GetByClientID(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, "server title", got.Title)

	// tombstones merge like any other update
	got, err = repos.Items.GetByClientID(ctx, "i2")
	require.NoError(t, err)
	assert.True(t, got.Deleted)

	_, err = repos.Folders.GetByClientID(ctx, "f1")
	require.NoError(t, err)

	raw, err := repos.Metadata.Get(ctx, metadata.KeyLastSyncAt)
	require.NoError(t, err)
	stored, err := time.Parse(time.RFC3339Nano, string(raw))
	require.NoError(t, err)
	assert.True(t, stored.Equal(syncedAt))

	// the new watermark rides along on the next request
	_, err = s.Sync(ctx)
	require.NoError(t, err)
	req := api.lastRequest(t)
	require.NotNil(t, req.LastSyncAt)
	assert.True(t, req.LastSyncAt.Equal(syncedAt))
}

func TestSync_SingleFlight(t *testing.T) {
	repos := setupRepos(t)
	api := &fakeAPI{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := NewSyncService(api, repos, testLogger(), nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := s.Sync(ctx)
		done <- err
	}()

	<-api.entered

	_, err := s.Sync(ctx)
	require.ErrorIs(t, err, common.ErrSyncInFlight)

	close(api.release)
	require.NoError(t, <-done)

	// released after completion
	_, err = s.Sync(ctx)
	require.NoError(t, err)
}

func TestSync_OfflineSkipsExchange(t *testing.T) {
	repos := setupRepos(t)
	api := &fakeAPI{}
	s := NewSyncService(api, repos, testLogger(), func() bool { return false })

	_, err := s.Sync(context.Background())
	require.ErrorIs(t, err, common.ErrOffline)
	assert.Empty(t, api.requests)
}

func TestSync_EmptyOutboxStillPulls(t *testing.T) {
	repos := setupRepos(t)
	api := &fakeAPI{
		resp: &protocol.SyncResponse{
			ServerItems: []protocol.Item{
				{ClientID: "i1", Type: "note", Title: "new", CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()},
			},
			SyncedAt: time.Now().UTC(),
		},
	}
	s := NewSyncService(api, repos, testLogger(), nil)

	report, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Sent)
	assert.Equal(t, 1, report.Pulled)
}

func TestBootstrap_SkipsEntitiesWithPendingMutations(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// a local edit that has not been transmitted yet
	require.NoError(t, repos.Items.Upsert(ctx, &protocol.Item{
		ClientID: "i1", Type: "note", Title: "unsent local edit", CreatedAt: base, UpdatedAt: base,
	}))
	enqueue(t, repos, models.EntityItem, protocol.ActionUpdate, "i1", []byte(`{"title":"unsent local edit"}`))

	api := &fakeAPI{
		pullItems: []protocol.Item{
			{ClientID: "i1", Type: "note", Title: "stale server copy", CreatedAt: base, UpdatedAt: base},
			{ClientID: "i2", Type: "note", Title: "fresh", CreatedAt: base, UpdatedAt: base},
		},
		pullFolders: []protocol.Folder{
			{ClientID: "f1", Name: "Inbox", CreatedAt: base, UpdatedAt: base},
		},
	}
	s := NewSyncService(api, repos, testLogger(), nil)

	require.NoError(t, s.Bootstrap(ctx))

	got, err := repos.Items.GetByClientID(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, "unsent local edit", got.Title, "pending entity must not be clobbered")

	got, err = repos.Items.GetByClientID(ctx, "i2")
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Title)

	_, err = repos.Folders.GetByClientID(ctx, "f1")
	require.NoError(t, err)

	raw, err := repos.Metadata.Get(ctx, metadata.KeyLastSyncAt)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestDedupeToLatest_KeepsLastPerClientID(t *testing.T) {
	entries := []models.OutboxEntry{
		{ID: 1, Entity: models.EntityItem, Action: protocol.ActionCreate, ClientID: "a"},
		{ID: 2, Entity: models.EntityFolder, Action: protocol.ActionCreate, ClientID: "f"},
		{ID: 3, Entity: models.EntityItem, Action: protocol.ActionUpdate, ClientID: "a"},
		{ID: 4, Entity: models.EntityFolder, Action: protocol.ActionDelete, ClientID: "f"},
	}

	folderOps, itemOps := dedupeToLatest(entries)

	require.Len(t, itemOps, 1)
	assert.Equal(t, protocol.ActionUpdate, itemOps[0].Action)

	require.Len(t, folderOps, 1)
	assert.Equal(t, protocol.ActionDelete, folderOps[0].Action)
}
