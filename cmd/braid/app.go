package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/braidhq/braid/internal/compact"
	"github.com/braidhq/braid/internal/config"
	ctxengine "github.com/braidhq/braid/internal/context"
	"github.com/braidhq/braid/internal/cron"
	"github.com/braidhq/braid/internal/gateway"
	"github.com/braidhq/braid/internal/observe"
	"github.com/braidhq/braid/modules/introspect/ollama"
	"github.com/braidhq/braid/modules/store/sqlite"
)

// app owns the wired subsystems of a running braid instance.
type app struct {
	logger          *slog.Logger
	store           *sqlite.Store
	gateway         *gateway.Server
	scheduler       *cron.Scheduler
	shutdownTracing func(context.Context) error
}

// summaryClient adapts the ollama client to the compaction Summarizer,
// optionally pinning a dedicated summarization model.
type summaryClient struct {
	client *ollama.Client
	model  string
}

func (s summaryClient) Summarize(ctx context.Context, model, prompt string) (string, error) {
	if s.model != "" {
		model = s.model
	}
	return s.client.Generate(ctx, model, prompt)
}

// catalogAdapter exposes the sqlite catalog in the gateway's shape.
type catalogAdapter struct {
	store *sqlite.Store
}

func (c catalogAdapter) Models(ctx context.Context) ([]gateway.ModelEntry, error) {
	rows, err := c.store.Models(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]gateway.ModelEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, gateway.ModelEntry{
			Name:           r.Name,
			ContextWindow:  r.ContextWindow,
			RecommendedCtx: r.RecommendedCtx,
			UpdatedAt:      r.UpdatedAt,
		})
	}
	return entries, nil
}

// newApp wires every subsystem from the validated configuration.
func newApp(cfg *config.Config) (*app, error) {
	logger := newLogger(cfg.Log.Level)

	shutdownTracing, err := observe.SetupTracing(context.Background(), cfg.Tracing.Endpoint, version)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(cfg.Store.Path, logger)
	if err != nil {
		return nil, err
	}

	client := ollama.New(cfg.Ollama.BaseURL, cfg.OllamaTimeout())
	cache := ctxengine.NewWindowCache(ctxengine.MaxCacheEntries, ctxengine.CacheTTL)
	resolver := ctxengine.NewResolver(cache, client, store, logger)
	tok := ctxengine.NewCharTokenizer(cfg.Engine.CharsPerToken)

	compactor := compact.NewService(
		summaryClient{client: client, model: cfg.Ollama.SummaryModel},
		store, tok, logger,
	)

	assembler := ctxengine.NewAssembler(resolver, tok, ctxengine.AssemblerOpts{
		Memory:    store,
		Summaries: store,
		Compactor: compactor,
		Logger:    logger,
	})

	registry := prometheus.NewRegistry()
	metrics := observe.NewMetrics(registry)
	hub := observe.NewHub()

	gw := gateway.New(gateway.Config{
		Bind:      cfg.Server.Listen,
		AuthToken: cfg.Server.AuthToken,
	}, resolver, assembler, gateway.Opts{
		Catalog:  catalogAdapter{store: store},
		Metrics:  metrics,
		Promview: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Hub:      hub,
		Logger:   logger,
	})

	scheduler := cron.NewScheduler(logger)
	jobs := []cron.Job{
		&cron.CatalogSyncJob{
			Models:       client,
			Catalog:      store,
			Logger:       logger,
			ScheduleExpr: cfg.Jobs.CatalogSync,
		},
		&cron.SummaryCleanupJob{
			Store:  store,
			MaxAge: cfg.SummaryMaxAge(),
			Logger: logger,
		},
	}
	for _, j := range jobs {
		if err := scheduler.RegisterJob(j); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	return &app{
		logger:          logger,
		store:           store,
		gateway:         gw,
		scheduler:       scheduler,
		shutdownTracing: shutdownTracing,
	}, nil
}

// run starts the gateway and scheduler, then blocks until ctx is done.
func (a *app) run(ctx context.Context) error {
	if err := a.gateway.Start(); err != nil {
		return err
	}
	if err := a.scheduler.Start(); err != nil {
		_ = a.gateway.Stop(context.Background())
		return err
	}

	a.logger.Info("braid started", "version", version)
	<-ctx.Done()
	return a.shutdown()
}

// shutdown stops every subsystem, collecting errors.
func (a *app) shutdown() error {
	a.logger.Info("braid shutting down")

	ctx := context.Background()
	var errs []error

	if err := a.gateway.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("gateway: %w", err))
	}
	if err := a.scheduler.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("scheduler: %w", err))
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := a.shutdownTracing(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}

	return errors.Join(errs...)
}

// newLogger builds the process logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
