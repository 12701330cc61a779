package cli

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/notico/internal/client/client"
	"github.com/dmitrijs2005/notico/internal/client/config"
	"github.com/dmitrijs2005/notico/internal/client/services"
	"github.com/dmitrijs2005/notico/internal/common"
	"github.com/dmitrijs2005/notico/internal/logging"

	_ "modernc.org/sqlite"
)

// Mode reflects the last known server reachability. Reads never depend on
// it; it only gates sync cycles and drives the status indicator.
type Mode string

const (
	ModeUnknown Mode = ""
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config        *config.Config
	api           client.Client
	repos         *client.Repositories
	itemService   *services.ItemService
	folderService *services.FolderService
	syncService   *services.SyncService
	trigger       *services.Trigger
	logger        logging.Logger
	reader        *bufio.Reader

	mu   sync.Mutex
	mode Mode
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	repos, err := client.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	api := client.NewHTTPClient(c.ServerEndpointAddr, c.RequestTimeout)

	a := &App{
		config: c,
		api:    api,
		repos:  repos,
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
	}

	a.syncService = services.NewSyncService(api, repos, logger, a.isOnline)
	a.trigger = services.NewTrigger(c.SyncDebounce, a.fireSync)
	a.itemService = services.NewItemService(repos.Items, repos.Outbox, a.trigger.Kick)
	a.folderService = services.NewFolderService(repos.Folders, repos.Outbox, a.trigger.Kick)

	return a, nil
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) isOnline() bool {
	return a.Mode() != ModeOffline
}

func (a *App) setMode(ctx context.Context, mode Mode) (changed bool) {
	a.mu.Lock()
	changed = a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		a.logger.Info(ctx, "connectivity changed", "mode", string(mode))
	}
	return changed
}

// fireSync runs one cycle on behalf of the debounced trigger. Guard and
// offline skips are normal operation; anything else is logged.
func (a *App) fireSync() {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.RequestTimeout+time.Second)
	defer cancel()

	_, err := a.syncService.Sync(ctx)
	if err != nil && !errors.Is(err, common.ErrSyncInFlight) && !errors.Is(err, common.ErrOffline) {
		a.logger.Warn(ctx, "background sync failed", "error", err)
	}
}

// StartOnlineStatusWatcher periodically probes the server. A transition from
// offline to online immediately kicks a sync cycle.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.api.Ping(pingCtx)
			cancel()

			if err != nil {
				a.setMode(ctx, ModeOffline)
			} else {
				wasOffline := a.Mode() == ModeOffline
				if a.setMode(ctx, ModeOnline) && wasOffline {
					go a.fireSync()
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

// Close releases the transport and the local database.
func (a *App) Close() {
	a.trigger.Stop()
	_ = a.api.Close()
	_ = a.repos.DB.Close()
}
