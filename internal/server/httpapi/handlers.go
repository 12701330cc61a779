package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/notico/internal/common"
	"github.com/dmitrijs2005/notico/internal/protocol"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(context.Background(), "failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, common.ErrorNotFound) {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	s.logger.Error(context.Background(), "request failed", "error", err)
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func decode[T any](r *http.Request) (*T, error) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	req, err := decode[protocol.SyncRequest](r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	resp, err := s.sync.Exchange(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	result, err := s.entities.ListLiveItems(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if result == nil {
		result = []protocol.Item{}
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	it, err := decode[protocol.Item](r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	stored, created, err := s.entities.CreateItem(r.Context(), it)
	if err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, stored)
}

func (s *Server) handlePatchItem(w http.ResponseWriter, r *http.Request) {
	patch, err := decode[protocol.ItemPatch](r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	stored, err := s.entities.PatchItem(r.Context(), r.PathValue("clientId"), *patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.entities.DeleteItem(r.Context(), r.PathValue("clientId")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	result, err := s.entities.ListLiveFolders(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if result == nil {
		result = []protocol.Folder{}
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	f, err := decode[protocol.Folder](r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	stored, created, err := s.entities.CreateFolder(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, stored)
}

func (s *Server) handlePatchFolder(w http.ResponseWriter, r *http.Request) {
	patch, err := decode[protocol.FolderPatch](r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	stored, err := s.entities.PatchFolder(r.Context(), r.PathValue("clientId"), *patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stored)
}

// handleDeleteFolder tombstones the folder and cascades over its items.
func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := s.entities.DeleteFolder(r.Context(), r.PathValue("clientId")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
