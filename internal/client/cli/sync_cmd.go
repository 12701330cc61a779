package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/notico/internal/common"
)

func (a *App) syncNow(ctx context.Context) {
	report, err := a.syncService.Sync(ctx)
	switch {
	case errors.Is(err, common.ErrSyncInFlight):
		fmt.Println("A sync cycle is already running")
		return
	case errors.Is(err, common.ErrOffline):
		fmt.Println("Server unreachable, changes stay queued")
		return
	case err != nil:
		fmt.Println("error:", err)
		return
	}

	fmt.Printf("Synced: sent %d, pulled %d\n", report.Sent, report.Pulled)
	for _, f := range report.Failures {
		fmt.Printf("  rejected %s %s: %s (%s)\n", f.Entity, f.ClientID, f.Status, f.Error)
	}
}

func (a *App) status(ctx context.Context) {
	mode := a.Mode()
	if mode == ModeUnknown {
		mode = ModeOffline
	}
	fmt.Println("Mode:", mode)

	pending, err := a.syncService.PendingCount(ctx)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Pending operations:", pending)
}
