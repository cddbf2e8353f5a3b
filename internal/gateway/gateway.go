// Package gateway provides the admin HTTP server: health, status,
// budget inspection, prompt preview, metrics, and the build-event
// stream. It binds to loopback by default.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	ctxengine "github.com/braidhq/braid/internal/context"
	"github.com/braidhq/braid/internal/observe"
)

// ModelEntry is one catalog row shown by the admin API.
type ModelEntry struct {
	Name           string `json:"name"`
	ContextWindow  int    `json:"context_window"`
	RecommendedCtx int    `json:"recommended_ctx"`
	UpdatedAt      string `json:"updated_at"`
}

// Catalog lists persisted model metadata.
type Catalog interface {
	Models(ctx context.Context) ([]ModelEntry, error)
}

// Server is the admin HTTP server. All collaborators except the
// resolver and assembler are optional; missing ones degrade the
// corresponding endpoint rather than failing startup.
type Server struct {
	config    Config
	logger    *slog.Logger
	resolver  *ctxengine.Resolver
	assembler *ctxengine.Assembler
	catalog   Catalog
	metrics   *observe.Metrics
	promview  http.Handler
	hub       *observe.Hub
	server    *http.Server
	startedAt time.Time
}

// Opts carries the optional collaborators for a Server.
type Opts struct {
	Catalog Catalog
	Metrics *observe.Metrics
	// Promview serves GET /metrics (typically promhttp over the
	// registry the metrics were registered on).
	Promview http.Handler
	Hub      *observe.Hub
	Logger   *slog.Logger
}

// New creates a Server.
func New(cfg Config, resolver *ctxengine.Resolver, assembler *ctxengine.Assembler, opts Opts) *Server {
	cfg.defaults()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:    cfg,
		logger:    logger,
		resolver:  resolver,
		assembler: assembler,
		catalog:   opts.Catalog,
		metrics:   opts.Metrics,
		promview:  opts.Promview,
		hub:       opts.Hub,
	}
}

// Start binds the listen address and serves in a background goroutine.
func (s *Server) Start() error {
	s.startedAt = time.Now()

	s.server = &http.Server{
		Addr:         s.config.Bind,
		Handler:      s.buildRouter(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", s.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		s.logger.Info("gateway listening", "addr", s.config.Bind)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts the server down with the configured timeout.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("gateway shutting down")
	return s.server.Shutdown(shutdownCtx)
}
