package services

import (
	"context"
	"fmt"
	"sync"
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
)

const watermarkLayout = time.RFC3339Nano

// SyncReport summarises one completed cycle. Failures lists operations the
// server rejected; they are NOT retried automatically: the outbox is cleared
// on any completed exchange and a failed operation needs a subsequent edit or
// a manual resync to be re-attempted.
type SyncReport struct {
	Sent     int
	Pulled   int
	Failures []protocol.OpResult
	SyncedAt time.Time
}

// SyncService is the coordinator for one device. At most one cycle runs at a
// time; a second invocation while one is in flight fails immediately with
// common.ErrSyncInFlight and is expected to be dropped, not queued.
type SyncService struct {
	api      client.Client
	items    items.Repository
	folders  folders.Repository
	outbox   outbox.Repository
	metadata metadata.Repository
	logger   logging.Logger

	// online, when set, lets the coordinator skip a cycle without touching
	// the wire. When nil the transport error path covers it.
	online func() bool

	mu       sync.Mutex
	inFlight bool
}

func NewSyncService(api client.Client, repos *client.Repositories, logger logging.Logger, online func() bool) *SyncService {
	return &SyncService{
		api:      api,
		items:    repos.Items,
		folders:  repos.Folders,
		outbox:   repos.Outbox,
		metadata: repos.Metadata,
		logger:   logger,
		online:   online,
	}
}

func (s *SyncService) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return common.ErrSyncInFlight
	}
	s.inFlight = true
	return nil
}

func (s *SyncService) release() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// Sync runs one full cycle: drain and deduplicate the outbox, transmit one
// atomic batch (folder operations ahead of item operations), clear the
// outbox, merge the returned snapshot server-wins, advance the watermark.
//
// An empty outbox still syncs: the exchange degenerates to a pull.
func (s *SyncService) Sync(ctx context.Context) (*SyncReport, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	if s.online != nil && !s.online() {
		return nil, common.ErrOffline
	}

	entries, err := s.outbox.DrainOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("error draining outbox: %w", err)
	}

	folderOps, itemOps := dedupeToLatest(entries)

	req := protocol.SyncRequest{
		Operations:       itemOps,
		FolderOperations: folderOps,
		LastSyncAt:       s.loadWatermark(ctx),
	}

	resp, err := s.api.Sync(ctx, req)
	if err != nil {
		// The batch never completed; the outbox stays intact for a
		// future attempt.
		return nil, fmt.Errorf("sync exchange failed: %w", err)
	}

	// The outbox is cleared on any completed exchange, even one carrying
	// per-operation errors. Failed operations surface in the report only.
	if err := s.outbox.Clear(ctx); err != nil {
		return nil, fmt.Errorf("error clearing outbox: %w", err)
	}

	report := &SyncReport{
		Sent:     len(folderOps) + len(itemOps),
		SyncedAt: resp.SyncedAt,
	}
	for _, res := range resp.Results {
		if res.Failed() {
			report.Failures = append(report.Failures, res)
			s.logger.Warn(ctx, "operation rejected by server",
				"clientId", res.ClientID, "entity", res.Entity, "status", res.Status, "error", res.Error)
		}
	}

	// Server wins at sync boundaries: snapshot entities fully overwrite the
	// local copies, with no version check. Folders first so items never
	// reference a folder state the merge has not seen yet.
	for i := range resp.ServerFolders {
		if err := s.folders.Upsert(ctx, &resp.ServerFolders[i]); err != nil {
			return report, fmt.Errorf("error merging folder: %w", err)
		}
	}
	for i := range resp.ServerItems {
		if err := s.items.Upsert(ctx, &resp.ServerItems[i]); err != nil {
			return report, fmt.Errorf("error merging item: %w", err)
		}
	}
	report.Pulled = len(resp.ServerFolders) + len(resp.ServerItems)

	if err := s.storeWatermark(ctx, resp.SyncedAt); err != nil {
		return report, err
	}

	s.logger.Info(ctx, "sync cycle completed",
		"sent", report.Sent, "pulled", report.Pulled, "failed", len(report.Failures))
	return report, nil
}

// Bootstrap performs the initial full pull, used once at startup before any
// steady-state sync. Unlike the steady-state merge, an incoming entity is
// skipped when the outbox still holds an unsent mutation for its clientId,
// so a local edit is not clobbered before it had a chance to be sent. The
// steady-state path deliberately has no such guard.
func (s *SyncService) Bootstrap(ctx context.Context) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	if s.online != nil && !s.online() {
		return common.ErrOffline
	}

	pending, err := s.outbox.PendingClientIDs(ctx)
	if err != nil {
		return fmt.Errorf("error reading outbox: %w", err)
	}

	serverFolders, err := s.api.PullFolders(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap pull failed: %w", err)
	}
	serverItems, err := s.api.PullItems(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap pull failed: %w", err)
	}

	skipped := 0
	for i := range serverFolders {
		if _, ok := pending[serverFolders[i].ClientID]; ok {
			skipped++
			continue
		}
		if err := s.folders.Upsert(ctx, &serverFolders[i]); err != nil {
			return fmt.Errorf("error merging folder: %w", err)
		}
	}
	for i := range serverItems {
		if _, ok := pending[serverItems[i].ClientID]; ok {
			skipped++
			continue
		}
		if err := s.items.Upsert(ctx, &serverItems[i]); err != nil {
			return fmt.Errorf("error merging item: %w", err)
		}
	}

	if err := s.storeWatermark(ctx, time.Now().UTC()); err != nil {
		return err
	}

	s.logger.Info(ctx, "bootstrap pull completed",
		"folders", len(serverFolders), "items", len(serverItems), "skippedPending", skipped)
	return nil
}

// PendingCount reports queued, not-yet-transmitted operations.
func (s *SyncService) PendingCount(ctx context.Context) (int, error) {
	return s.outbox.Count(ctx)
}

// dedupeToLatest collapses the drained queue to at most one operation per
// clientId, keeping the entry with the greatest queuedAt (the latest local
// intent wins within the cycle), and partitions folder operations ahead of
// item operations.
func dedupeToLatest(entries []models.OutboxEntry) (folderOps, itemOps []protocol.Operation) {
	latest := make(map[string]models.OutboxEntry, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, seen := latest[e.ClientID]; !seen {
			order = append(order, e.ClientID)
		}
		// Drain order is enqueue order, so the last entry seen for a
		// clientId carries the greatest queuedAt.
		latest[e.ClientID] = e
	}

	for _, id := range order {
		e := latest[id]
		op := protocol.Operation{Action: e.Action, ClientID: e.ClientID, Data: e.Data}
		if e.Entity == models.EntityFolder {
			folderOps = append(folderOps, op)
		} else {
			itemOps = append(itemOps, op)
		}
	}
	return folderOps, itemOps
}

func (s *SyncService) loadWatermark(ctx context.Context) *time.Time {
	raw, err := s.metadata.Get(ctx, metadata.KeyLastSyncAt)
	if err != nil {
		s.logger.Warn(ctx, "failed to load watermark", "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}
	t, err := time.Parse(watermarkLayout, string(raw))
	if err != nil {
		s.logger.Warn(ctx, "invalid stored watermark", "value", string(raw), "error", err)
		return nil
	}
	return &t
}

func (s *SyncService) storeWatermark(ctx context.Context, at time.Time) error {
	if err := s.metadata.Set(ctx, metadata.KeyLastSyncAt, []byte(at.UTC().Format(watermarkLayout))); err != nil {
		return fmt.Errorf("error persisting watermark: %w", err)
	}
	return nil
}
