// Package web serves the catalog as a JSON API.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"barstock/internal"
	"barstock/internal/catalog"
	"barstock/internal/refresher"
)

// Backend is satisfied by *catalog.SyncService.
type Backend interface {
	Catalog() *catalog.Catalog
	Refresh(ctx context.Context) (catalog.RefreshResult, error)
	Runs(limit int) ([]internal.RunRecord, error)
}

type Server struct {
	backend Backend
	gate    *refresher.Gate
	router  *chi.Mux
	server  *http.Server
}

// NewServer shares gate with the background refresher so a manual refresh
// never overlaps a scheduled one.
func NewServer(backend Backend, gate *refresher.Gate) *Server {
	if gate == nil {
		gate = &refresher.Gate{}
	}
	s := &Server{
		backend: backend,
		gate:    gate,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/drinks", s.handleListDrinks)
		r.Get("/drinks/{id}", s.handleGetDrink)
		r.Get("/headers", s.handleHeaders)
		r.Get("/runs", s.handleRuns)
		r.Post("/refresh", s.handleRefresh)
	})
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
