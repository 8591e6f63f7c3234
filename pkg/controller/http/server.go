package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
	"github.com/opsgrid/defectpulse/pkg/domain/interfaces"
)

// Server represents the HTTP server
type Server struct {
	*http.Server
	router chi.Router
}

// NewServer creates a new HTTP server exposing the dashboard API
func NewServer(ctx context.Context, addr string, ledger interfaces.UploadLedger, dashboard interfaces.Dashboard) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	handler := NewHandler(ledger, dashboard)

	router.Get("/health", handleHealth)

	router.Route("/api", func(r chi.Router) {
		r.Route("/uploads", func(r chi.Router) {
			r.Get("/", handler.HandleListUploads)
			r.Post("/", handler.HandleCommitUpload)
			r.Put("/{uploadID}", handler.HandleReplaceUpload)
		})
		r.Get("/kpis", handler.HandleGetKPIs)
		r.Get("/aging", handler.HandleListAgingBugs)
		r.Get("/history", handler.HandleListHistory)
	})

	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
		router: router,
	}
}

// Router exposes the chi router (useful for testing)
func (s *Server) Router() chi.Router {
	return s.router
}

// handleHealth handles health check requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "defectpulse",
	}); err != nil {
		ctxlog.From(r.Context()).Error("Failed to encode health response", "error", err)
	}
}
