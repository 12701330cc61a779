// Package models defines client-side types for the local replica: outbox
// entries (pending intents) and list filters for the read path.
package models

import (
	"time"

	"github.com/dmitrijs2005/notico/internal/protocol"
)

// Entity kinds carried by the outbox. One queue holds both so drain order is
// global; the coordinator partitions folder operations ahead of item
// operations when building a batch.
const (
	EntityItem   = "item"
	EntityFolder = "folder"
)

// OutboxEntry is one not-yet-transmitted mutation. Data carries the full
// entity for creates and a field patch for updates; nil for deletes.
// QueuedAt is assigned at enqueue time and only ever grows.
type OutboxEntry struct {
	ID       int64
	Entity   string
	Action   protocol.Action
	ClientID string
	Data     []byte
	QueuedAt time.Time
}

// ListFilter narrows the item read path. All supplied predicates are ANDed.
// SearchTerms each must occur, case-insensitively, as a substring of the
// concatenation of title, content, tags and url.
type ListFilter struct {
	Type        string
	FolderID    string
	SearchTerms []string
}
