package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/notico/internal/protocol"
)

func (a *App) listFolders(ctx context.Context) {
	result, err := a.folderService.List(ctx)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, f := range result {
		fmt.Printf("%-36s %s\n", f.ClientID, f.Name)
	}
	fmt.Printf("%d folder(s)\n", len(result))
}

func (a *App) addFolder(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: mkdir <name>")
		return
	}
	f := &protocol.Folder{
		Name:  strings.Join(args, " "),
		Color: a.prompt("Color (optional): "),
	}
	if err := a.folderService.Create(ctx, f); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Created", f.ClientID)
}

func (a *App) renameFolder(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: mvdir <id> <new name>")
		return
	}
	name := strings.Join(args[1:], " ")
	patch := protocol.FolderPatch{Name: &name}
	f, err := a.folderService.Update(ctx, args[0], patch)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Renamed to", f.Name)
}

func (a *App) removeFolder(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: rmdir <id>")
		return
	}
	if err := a.folderService.Delete(ctx, args[0]); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Deleted", args[0])
}
