// Package api provides the reference sync server: the HTTP surface the
// engine's sync coordinator talks to. It stores one record collection per
// authenticated scope and kind, merge-upserting pushes so a stale client can
// never roll back a newer copy.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quillapp/quill-engine/internal/http/response"
	"github.com/quillapp/quill-engine/internal/normalize"
	"github.com/quillapp/quill-engine/internal/ratelimit"
	"github.com/quillapp/quill-engine/internal/scope"
	"github.com/quillapp/quill-engine/internal/store"
)

// Server holds dependencies for the sync HTTP handlers.
type Server struct {
	store   *store.Adapter
	scopes  *scope.Resolver
	limiter *ratelimit.KeyedRateLimiter
	norm    *normalize.Normalizer
	router  *chi.Mux
	logger  *slog.Logger
}

// NewServer creates a sync server over the given storage adapter. The
// resolver verifies session tokens; limiter may be nil to disable rate
// limiting.
func NewServer(adapter *store.Adapter, scopes *scope.Resolver, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		store:   adapter,
		scopes:  scopes,
		limiter: limiter,
		norm:    normalize.New(),
		router:  chi.NewRouter(),
		logger:  logger,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/records", func(r chi.Router) {
			r.Use(s.requireScope)
			r.Use(s.rateLimit)
			r.Get("/", s.handleListRecords)
			r.Post("/", s.handleBulkUpsert)
		})
	})
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]string{"status": "healthy"}, s.logger)
}
