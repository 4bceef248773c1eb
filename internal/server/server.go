// Package server provides the HTTP API of the AI service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bizflow/ai-svc/internal/config"
	"github.com/bizflow/ai-svc/internal/models"
)

// ProductSyncer upserts a tenant's product batch into the catalog and
// reports how many records were stored.
type ProductSyncer interface {
	Sync(ctx context.Context, ownerID string, products []models.ProductRecord) (int, error)
}

// OrderParser turns customer messages into draft orders and recorded
// speech into text.
type OrderParser interface {
	Extract(ctx context.Context, ownerID, message string) models.DraftOrder
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Server is the HTTP server for the AI service API.
type Server struct {
	catalog ProductSyncer
	parser  OrderParser
	config  *config.ServerConfig
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(catalog ProductSyncer, parser OrderParser, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		catalog: catalog,
		parser:  parser,
		config:  cfg,
		logger:  logger,
	}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/products/sync", s.handleSyncProducts)
	r.Post("/api/parse-order", s.handleParseOrder)
	r.Post("/api/orders/ai/transcribe", s.handleTranscribe)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
