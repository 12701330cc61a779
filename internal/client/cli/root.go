package cli

import (
	"context"
	"fmt"
	"strings"
)

func (a *App) getStatus() string {
	s := string(a.Mode())
	if s == "" {
		s = "starting"
	}
	return fmt.Sprintf("(%s)", s)
}

// Run starts the connectivity watcher, performs the one-time bootstrap pull
// when the server is reachable, and enters the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close()

	fmt.Println("Welcome to Notico CLI (type 'help' for commands)")

	a.probeAndBootstrap(ctx)

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	for {
		fmt.Printf("notico %s> ", a.getStatus())
		line, err := a.reader.ReadString('\n')
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			fmt.Println("Available commands: add, (l)ist, get, edit, rm, folders, mkdir, mvdir, rmdir, sync, status, exit")

		case "add":
			a.addItem(ctx, args)
		case "l", "list":
			a.listItems(ctx, args)
		case "get":
			a.showItem(ctx, args)
		case "edit":
			a.editItem(ctx, args)
		case "rm":
			a.removeItem(ctx, args)
		case "folders":
			a.listFolders(ctx)
		case "mkdir":
			a.addFolder(ctx, args)
		case "mvdir":
			a.renameFolder(ctx, args)
		case "rmdir":
			a.removeFolder(ctx, args)
		case "sync":
			a.syncNow(ctx)
		case "status":
			a.status(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}

// probeAndBootstrap pings once so the first prompt shows a real mode, and
// runs the initial full pull when the server is reachable. The bootstrap is
// the only merge path that protects entities with pending outbox entries.
func (a *App) probeAndBootstrap(ctx context.Context) {
	if err := a.api.Ping(ctx); err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)

	if err := a.syncService.Bootstrap(ctx); err != nil {
		fmt.Println("initial pull failed:", err)
	}
}
