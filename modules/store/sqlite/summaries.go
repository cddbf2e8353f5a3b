package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	ctxengine "github.com/braidhq/braid/internal/context"
)

// Compile-time interface guard.
var _ ctxengine.SummarySource = (*Store)(nil)

// Summary implements ctxengine.SummarySource. Returns "" when the
// conversation has no stored summary.
func (s *Store) Summary(ctx context.Context, conversationID string) (string, error) {
	var summary string
	err := s.db.QueryRowContext(ctx,
		"SELECT summary FROM summaries WHERE conversation_id = ?",
		conversationID,
	).Scan(&summary)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: read summary for %s: %w", conversationID, err)
	}
	return summary, nil
}

// SaveSummary stores or replaces the running summary for a conversation.
func (s *Store) SaveSummary(ctx context.Context, conversationID, summary string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO summaries (conversation_id, summary, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT(conversation_id) DO UPDATE SET
			summary    = excluded.summary,
			updated_at = excluded.updated_at`,
		conversationID, summary,
	)
	if err != nil {
		return fmt.Errorf("sqlite: save summary for %s: %w", conversationID, err)
	}
	return nil
}

// PruneSummaries deletes summaries not updated within maxAge and returns
// the number of rows removed.
func (s *Store) PruneSummaries(ctx context.Context, maxAge time.Duration) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM summaries
		WHERE updated_at < strftime('%Y-%m-%dT%H:%M:%fZ','now', ?)`,
		fmt.Sprintf("-%d seconds", int(maxAge.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune summaries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: prune summaries count: %w", err)
	}
	return int(n), nil
}
