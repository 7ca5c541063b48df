// Package server provides the HTTP API for kotae.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/search"
	"github.com/hyperjump/kotae/internal/storage"
	"go.uber.org/zap"
)

// WatchService manages the inbox directories at runtime.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// ModelStatus reports whether the embedding model has been loaded.
type ModelStatus interface {
	Loaded() bool
}

// Server is the HTTP server for the kotae API.
type Server struct {
	engine     *search.Engine
	indexer    *indexer.Indexer
	store      storage.Store
	config     *config.Config
	configPath string
	configMu   sync.Mutex
	watch      WatchService
	model      ModelStatus
	logger     *zap.Logger
	server     *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithWatch enables the watch directory routes. When configPath is set,
// directory changes are written back to the config file.
func WithWatch(ws WatchService, configPath string) ServerOption {
	return func(s *Server) {
		s.watch = ws
		s.configPath = configPath
	}
}

// WithModelStatus lets /api/v1/status report whether the model is loaded.
func WithModelStatus(m ModelStatus) ServerOption {
	return func(s *Server) { s.model = m }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	idx *indexer.Indexer,
	store storage.Store,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...ServerOption,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:  engine,
		indexer: idx,
		store:   store,
		config:  cfg,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router serving every route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/corpora", s.handleIngest)
		r.Get("/corpora", s.handleListCorpora)
		r.Get("/corpora/{key}", s.handleGetCorpus)
		r.Post("/corpora/{key}/ask", s.handleAsk)
		r.Get("/status", s.handleStatus)

		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	})

	// Routes of the original single-file service.
	r.Post("/extractPdf", s.handleLegacyExtract)
	r.Post("/ask", s.handleLegacyAsk)

	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			s.logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
