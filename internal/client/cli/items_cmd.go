package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/notico/internal/client/models"
	"github.com/dmitrijs2005/notico/internal/protocol"
)

// Item kinds accepted by the add/list commands.
var knownTypes = map[string]struct{}{
	"note":     {},
	"bookmark": {},
	"reminder": {},
}

func (a *App) prompt(label string) string {
	fmt.Print(label)
	line, err := a.reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

func (a *App) addItem(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: add <note|bookmark|reminder> <title>")
		return
	}
	typ := args[0]
	if _, ok := knownTypes[typ]; !ok {
		fmt.Println("Unknown item type:", typ)
		return
	}

	it := &protocol.Item{
		Type:    typ,
		Title:   strings.Join(args[1:], " "),
		Content: a.prompt("Content: "),
		Tags:    splitTags(a.prompt("Tags (comma separated): ")),
	}
	if typ == "bookmark" {
		it.URL = a.prompt("URL: ")
	}
	if folderID := a.prompt("Folder id (optional): "); folderID != "" {
		it.FolderID = folderID
	}

	if err := a.itemService.Create(ctx, it); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Created", it.ClientID)
}

func (a *App) listItems(ctx context.Context, args []string) {
	filter := models.ListFilter{}
	if len(args) > 0 {
		if _, ok := knownTypes[args[0]]; ok {
			filter.Type = args[0]
			args = args[1:]
		}
	}
	filter.SearchTerms = args

	result, err := a.itemService.List(ctx, filter)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, it := range result {
		pin := " "
		if it.Pinned {
			pin = "*"
		}
		fmt.Printf("%s %-36s %-8s %s\n", pin, it.ClientID, it.Type, it.Title)
	}
	fmt.Printf("%d item(s)\n", len(result))
}

func (a *App) showItem(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: get <id>")
		return
	}
	it, err := a.itemService.Get(ctx, args[0])
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("id:      %s\ntype:    %s\ntitle:   %s\ncontent: %s\n", it.ClientID, it.Type, it.Title, it.Content)
	if it.URL != "" {
		fmt.Printf("url:     %s\n", it.URL)
	}
	if len(it.Tags) > 0 {
		fmt.Printf("tags:    %s\n", strings.Join(it.Tags, ", "))
	}
	if it.FolderID != "" {
		fmt.Printf("folder:  %s\n", it.FolderID)
	}
	fmt.Printf("updated: %s\n", it.UpdatedAt.Local())
}

func (a *App) editItem(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: edit <id> <title|content|url|color|folder|tags|pinned> <value>")
		return
	}
	clientID, field := args[0], args[1]
	value := strings.Join(args[2:], " ")

	var patch protocol.ItemPatch
	switch field {
	case "title":
		patch.Title = &value
	case "content":
		patch.Content = &value
	case "url":
		patch.URL = &value
	case "color":
		patch.Color = &value
	case "folder":
		patch.FolderID = &value
	case "tags":
		tags := splitTags(value)
		patch.Tags = &tags
	case "pinned":
		pinned, err := strconv.ParseBool(value)
		if err != nil {
			fmt.Println("pinned must be true or false")
			return
		}
		patch.Pinned = &pinned
	default:
		fmt.Println("Unknown field:", field)
		return
	}

	if _, err := a.itemService.Update(ctx, clientID, patch); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Updated", clientID)
}

func (a *App) removeItem(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: rm <id>")
		return
	}
	if err := a.itemService.Delete(ctx, args[0]); err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("Deleted", args[0])
}
