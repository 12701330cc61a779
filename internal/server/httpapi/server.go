// Package httpapi exposes the server over HTTP/JSON: the batched sync
// exchange, the bootstrap pull endpoints and a small REST surface for
// direct entity access.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/notico/internal/logging"
	"github.com/dmitrijs2005/notico/internal/server/services"
)

type Server struct {
	address         string
	entities        *services.EntityService
	sync            *services.SyncService
	logger          logging.Logger
	shutdownTimeout time.Duration
}

func NewServer(addr string, l logging.Logger, es *services.EntityService, ss *services.SyncService, shutdownTimeout time.Duration) *Server {
	return &Server{
		address:         addr,
		logger:          l.With("module", "http_server"),
		entities:        es,
		sync:            ss,
		shutdownTimeout: shutdownTimeout,
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/sync", s.handleSync)

	mux.HandleFunc("GET /api/items", s.handleListItems)
	mux.HandleFunc("POST /api/items", s.handleCreateItem)
	mux.HandleFunc("PATCH /api/items/{clientId}", s.handlePatchItem)
	mux.HandleFunc("DELETE /api/items/{clientId}", s.handleDeleteItem)

	mux.HandleFunc("GET /api/folders", s.handleListFolders)
	mux.HandleFunc("POST /api/folders", s.handleCreateFolder)
	mux.HandleFunc("PATCH /api/folders/{clientId}", s.handlePatchFolder)
	mux.HandleFunc("DELETE /api/folders/{clientId}", s.handleDeleteFolder)

	return mux
}

// Run serves until ctx is cancelled, then drains in-flight requests within
// the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
