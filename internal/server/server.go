// Package server provides the HTTP API for Query Lab.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/querylab/internal/config"
	"github.com/hyperjump/querylab/internal/elastic"
	"github.com/hyperjump/querylab/internal/keyword"
	"github.com/hyperjump/querylab/internal/labs"
	"github.com/hyperjump/querylab/internal/search"
	"github.com/hyperjump/querylab/internal/storage"
)

// Server is the HTTP server for the Query Lab API.
type Server struct {
	engine  *search.Engine
	labs    *labs.Registry
	catalog *keyword.Catalog
	storage storage.Storage
	client  elastic.Client
	config  *config.Config
	logger  *zap.Logger

	mu     sync.Mutex
	server *http.Server
}

// NewServer creates a server with the given dependencies. client may be nil
// when no API key is configured; the proxy then answers 500.
func NewServer(
	engine *search.Engine,
	registry *labs.Registry,
	catalog *keyword.Catalog,
	store storage.Storage,
	client elastic.Client,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:  engine,
		labs:    registry,
		catalog: catalog,
		storage: store,
		client:  client,
		config:  cfg,
		logger:  logger,
	}
}

// Router returns the HTTP handler with every route mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Handle("/static/*", s.staticHandler())
	r.HandleFunc("/api/elasticsearch/*", s.handleProxy)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)

		r.Get("/labs", s.handleListLabs)
		r.Route("/labs/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetLab)
			r.Get("/examples/{exampleID}", s.handleGetExample)
			r.Post("/retarget", s.handleRetarget)
			r.Post("/run", s.handleRun)
			r.Post("/challenge", s.handleChallenge)
			r.Post("/validate", s.handleValidateExamples)
		})
		r.Get("/catalog", s.handleCatalog)

		r.Post("/query/introspect", s.handleIntrospect)
		r.Post("/query/swap", s.handleSwap)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/explain", s.handleExplain)

		r.Post("/sessions", s.handleNewSession)
		r.Get("/sessions/{sid}", s.handleListStates)
		r.Delete("/sessions/{sid}", s.handleDeleteSession)
		r.Get("/sessions/{sid}/states/{labID}/{exampleID}/{dataset}", s.handleGetState)
		r.Put("/sessions/{sid}/states/{labID}/{exampleID}/{dataset}", s.handlePutState)
	})
	return r
}

// Start listens on the configured address and blocks until the server stops.
// After Stop it returns http.ErrServerClosed.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.logger.Info("Starting server", zap.String("addr", l.Addr().String()))
	return s.Serve(l)
}

// Serve accepts connections on l until Stop is called.
func (s *Server) Serve(l net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()
	return srv.Serve(l)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}
