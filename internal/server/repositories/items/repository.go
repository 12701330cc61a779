package items

import (
	"context"
	"time"

	"github.com/dmitrijs2005/notico/internal/protocol"
)

type Repository interface {
	GetByClientID(ctx context.Context, clientID string) (*protocol.Item, error)
	Insert(ctx context.Context, item *protocol.Item) error
	Save(ctx context.Context, item *protocol.Item) error
	SoftDelete(ctx context.Context, clientID string, at time.Time) error
	SelectUpdatedSince(ctx context.Context, since *time.Time) ([]protocol.Item, error)
	SelectLive(ctx context.Context) ([]protocol.Item, error)
	TombstoneByFolder(ctx context.Context, folderClientID string, at time.Time) error
}
