package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	ctxengine "github.com/braidhq/braid/internal/context"
)

// Compile-time interface guard.
var _ ctxengine.Catalog = (*Store)(nil)

// CatalogModel is one catalog row, exposed for the admin API.
type CatalogModel struct {
	Name           string `json:"name"`
	ContextWindow  int    `json:"context_window"`
	RecommendedCtx int    `json:"recommended_ctx"`
	UpdatedAt      string `json:"updated_at"`
}

// ModelWindow implements ctxengine.Catalog.
func (s *Store) ModelWindow(ctx context.Context, model string) (ctxengine.CatalogEntry, error) {
	var entry ctxengine.CatalogEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT context_window, recommended_ctx FROM models WHERE name = ?`,
		model,
	).Scan(&entry.ContextWindow, &entry.RecommendedCtx)
	if errors.Is(err, sql.ErrNoRows) {
		return ctxengine.CatalogEntry{}, ErrModelNotFound
	}
	if err != nil {
		return ctxengine.CatalogEntry{}, fmt.Errorf("sqlite: read model %s: %w", model, err)
	}
	return entry, nil
}

// UpsertModel stores or refreshes a catalog entry.
func (s *Store) UpsertModel(ctx context.Context, name string, contextWindow, recommendedCtx int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO models (name, context_window, recommended_ctx, updated_at)
		VALUES (?, ?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT(name) DO UPDATE SET
			context_window  = excluded.context_window,
			recommended_ctx = excluded.recommended_ctx,
			updated_at      = excluded.updated_at`,
		name, contextWindow, recommendedCtx,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert model %s: %w", name, err)
	}
	return nil
}

// Models lists all catalog entries, newest update first.
func (s *Store) Models(ctx context.Context) ([]CatalogModel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, context_window, recommended_ctx, updated_at
		FROM models ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var models []CatalogModel
	for rows.Next() {
		var m CatalogModel
		if err := rows.Scan(&m.Name, &m.ContextWindow, &m.RecommendedCtx, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan model: %w", err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate models: %w", err)
	}
	return models, nil
}
