package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	ctxengine "github.com/braidhq/braid/internal/context"
	"github.com/braidhq/braid/modules/introspect/ollama"
)

// ModelLister enumerates the models installed on the inference server.
// Defined here to avoid depending on the full ollama client surface.
type ModelLister interface {
	Tags(ctx context.Context) ([]ollama.Model, error)
	Show(ctx context.Context, model string) (ctxengine.ModelInfo, error)
}

// CatalogWriter persists resolved model windows.
type CatalogWriter interface {
	UpsertModel(ctx context.Context, name string, contextWindow, recommendedCtx int) error
}

// CatalogSyncJob refreshes the persisted model catalog from the live
// inference server: every installed model is introspected and its
// context window written back, so window resolution keeps working when
// the server is later unreachable.
type CatalogSyncJob struct {
	Models       ModelLister
	Catalog      CatalogWriter
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 * * * *"
}

// Compile-time interface check.
var _ Job = (*CatalogSyncJob)(nil)

// Name implements Job.
func (j *CatalogSyncJob) Name() string { return "catalog_sync" }

// Schedule implements Job.
func (j *CatalogSyncJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 * * * *"
}

// Run introspects every installed model and upserts its catalog row.
// A single model failing does not abort the sweep.
func (j *CatalogSyncJob) Run(ctx context.Context) error {
	models, err := j.Models.Tags(ctx)
	if err != nil {
		return fmt.Errorf("cron: list models: %w", err)
	}

	var failed int
	for _, m := range models {
		if ctx.Err() != nil {
			return fmt.Errorf("cron: catalog sync cancelled: %w", ctx.Err())
		}

		window, err := j.resolveWindow(ctx, m.Name)
		if err != nil {
			j.Logger.Warn("cron: model introspection failed during sync",
				"model", m.Name, "error", err)
			failed++
			continue
		}

		recommended := ctxengine.RecommendedForWindow(window)
		if err := j.Catalog.UpsertModel(ctx, m.Name, window, recommended); err != nil {
			j.Logger.Warn("cron: catalog upsert failed",
				"model", m.Name, "error", err)
			failed++
		}
	}

	j.Logger.Info("cron: catalog sync completed",
		"models", len(models), "failed", failed)
	return nil
}

// resolveWindow derives a context window for one model, falling back to
// the family default when introspection carries no usable length.
func (j *CatalogSyncJob) resolveWindow(ctx context.Context, model string) (int, error) {
	info, err := j.Models.Show(ctx, model)
	if err != nil {
		return 0, err
	}
	if window := ctxengine.WindowFromInfo(info); window > 0 {
		return window, nil
	}
	return ctxengine.FallbackWindow(model), nil
}

// SummaryPruner removes stale conversation summaries.
type SummaryPruner interface {
	PruneSummaries(ctx context.Context, maxAge time.Duration) (int, error)
}

// SummaryCleanupJob deletes running summaries whose conversation has
// been inactive longer than MaxAge.
type SummaryCleanupJob struct {
	Store        SummaryPruner
	MaxAge       time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 3 * * *"
}

// Compile-time interface check.
var _ Job = (*SummaryCleanupJob)(nil)

// Name implements Job.
func (j *SummaryCleanupJob) Name() string { return "summary_cleanup" }

// Schedule implements Job.
func (j *SummaryCleanupJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 3 * * *"
}

// Run prunes summaries older than MaxAge.
func (j *SummaryCleanupJob) Run(ctx context.Context) error {
	pruned, err := j.Store.PruneSummaries(ctx, j.MaxAge)
	if err != nil {
		return fmt.Errorf("cron: prune summaries: %w", err)
	}
	if pruned > 0 {
		j.Logger.Info("cron: pruned stale summaries", "count", pruned)
	}
	return nil
}
