package client

import (
	"context"

	"github.com/dmitrijs2005/notico/internal/protocol"
)

// Client is the transport-agnostic contract with the authoritative server.
//
// Sync transmits one atomic batch and returns per-operation outcomes plus the
// watermark-bounded snapshot. PullItems/PullFolders back the bootstrap pull
// and return only non-tombstoned entities.
type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Sync(ctx context.Context, req protocol.SyncRequest) (*protocol.SyncResponse, error)
	PullItems(ctx context.Context) ([]protocol.Item, error)
	PullFolders(ctx context.Context) ([]protocol.Folder, error)
}
