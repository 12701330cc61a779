package folders

import (
	"context"
	"time"

	"github.com/dmitrijs2005/notico/internal/protocol"
)

type Repository interface {
	GetByClientID(ctx context.Context, clientID string) (*protocol.Folder, error)
	Insert(ctx context.Context, folder *protocol.Folder) error
	Save(ctx context.Context, folder *protocol.Folder) error
	SoftDelete(ctx context.Context, clientID string, at time.Time) error
	SelectUpdatedSince(ctx context.Context, since *time.Time) ([]protocol.Folder, error)
	SelectLive(ctx context.Context) ([]protocol.Folder, error)
}
