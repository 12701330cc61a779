package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dmitrijs2005/notico/internal/common"
	"github.com/dmitrijs2005/notico/internal/logging"
	"github.com/dmitrijs2005/notico/internal/protocol"
)

// SyncService handles one batched exchange: apply the device's operations
// (folder operations strictly first), then answer with a snapshot of
// everything mutated since the device's watermark.
//
// Operations are applied independently. A failing operation yields an error
// status in its result row and never aborts the rest of the batch.
type SyncService struct {
	entities *EntityService
	logger   logging.Logger
}

func NewSyncService(entities *EntityService, logger logging.Logger) *SyncService {
	return &SyncService{entities: entities, logger: logger}
}

// Exchange applies the batch and assembles the response. SyncedAt is taken
// after the last operation so the snapshot bounded by it contains every
// mutation this exchange made.
func (s *SyncService) Exchange(ctx context.Context, req *protocol.SyncRequest) (*protocol.SyncResponse, error) {
	results := make([]protocol.OpResult, 0, len(req.FolderOperations)+len(req.Operations))

	for _, op := range req.FolderOperations {
		res := s.applyFolderOp(ctx, op)
		if res.Failed() {
			s.logger.Warn(ctx, "folder operation failed",
				"action", string(op.Action), "clientId", op.ClientID, "status", string(res.Status), "error", res.Error)
		}
		results = append(results, res)
	}
	for _, op := range req.Operations {
		res := s.applyItemOp(ctx, op)
		if res.Failed() {
			s.logger.Warn(ctx, "item operation failed",
				"action", string(op.Action), "clientId", op.ClientID, "status", string(res.Status), "error", res.Error)
		}
		results = append(results, res)
	}

	syncedAt := time.Now().UTC()

	serverFolders, err := s.entities.repomanager.Folders(s.entities.db).SelectUpdatedSince(ctx, req.LastSyncAt)
	if err != nil {
		return nil, err
	}
	serverItems, err := s.entities.repomanager.Items(s.entities.db).SelectUpdatedSince(ctx, req.LastSyncAt)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "sync exchange completed",
		"operations", len(results), "folders", len(serverFolders), "items", len(serverItems))

	return &protocol.SyncResponse{
		Results:       results,
		ServerItems:   serverItems,
		ServerFolders: serverFolders,
		SyncedAt:      syncedAt,
	}, nil
}

func (s *SyncService) applyItemOp(ctx context.Context, op protocol.Operation) protocol.OpResult {
	res := protocol.OpResult{ClientID: op.ClientID}

	switch op.Action {
	case protocol.ActionCreate:
		var it protocol.Item
		if err := json.Unmarshal(op.Data, &it); err != nil {
			return fail(res, err)
		}
		it.ClientID = op.ClientID
		stored, created, err := s.entities.CreateItem(ctx, &it)
		if err != nil {
			return fail(res, err)
		}
		res.Item = stored
		res.Status = protocol.StatusExists
		if created {
			res.Status = protocol.StatusCreated
		}

	case protocol.ActionUpdate:
		patch, err := protocol.DecodeItemPatch(op.Data)
		if err != nil {
			return fail(res, err)
		}
		stored, err := s.entities.PatchItem(ctx, op.ClientID, patch)
		if err != nil {
			return fail(res, err)
		}
		res.Item = stored
		res.Status = protocol.StatusUpdated

	case protocol.ActionDelete:
		if err := s.entities.DeleteItem(ctx, op.ClientID); err != nil {
			return fail(res, err)
		}
		res.Status = protocol.StatusDeleted

	default:
		res.Status = protocol.StatusError
		res.Error = "unknown action: " + string(op.Action)
	}
	return res
}

func (s *SyncService) applyFolderOp(ctx context.Context, op protocol.Operation) protocol.OpResult {
	res := protocol.OpResult{ClientID: op.ClientID, Entity: protocol.EntityFolder}

	switch op.Action {
	case protocol.ActionCreate:
		var f protocol.Folder
		if err := json.Unmarshal(op.Data, &f); err != nil {
			return fail(res, err)
		}
		f.ClientID = op.ClientID
		stored, created, err := s.entities.CreateFolder(ctx, &f)
		if err != nil {
			return fail(res, err)
		}
		res.Folder = stored
		res.Status = protocol.StatusExists
		if created {
			res.Status = protocol.StatusCreated
		}

	case protocol.ActionUpdate:
		patch, err := protocol.DecodeFolderPatch(op.Data)
		if err != nil {
			return fail(res, err)
		}
		stored, err := s.entities.PatchFolder(ctx, op.ClientID, patch)
		if err != nil {
			return fail(res, err)
		}
		res.Folder = stored
		res.Status = protocol.StatusUpdated

	case protocol.ActionDelete:
		if err := s.entities.DeleteFolder(ctx, op.ClientID); err != nil {
			return fail(res, err)
		}
		res.Status = protocol.StatusDeleted

	default:
		res.Status = protocol.StatusError
		res.Error = "unknown action: " + string(op.Action)
	}
	return res
}

func fail(res protocol.OpResult, err error) protocol.OpResult {
	if isNotFound(err) {
		res.Status = protocol.StatusNotFound
		return res
	}
	res.Status = protocol.StatusError
	res.Error = err.Error()
	return res
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrorNotFound)
}
