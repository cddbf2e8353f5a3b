package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	ctxengine "github.com/braidhq/braid/internal/context"
)

// Compile-time interface guard.
var _ ctxengine.MemorySource = (*Store)(nil)

// Profile implements ctxengine.MemorySource. Returns "" when no profile
// has been stored yet.
func (s *Store) Profile(ctx context.Context) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx, "SELECT content FROM profile WHERE id = 1").Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: read profile: %w", err)
	}
	return content, nil
}

// SetProfile stores the singleton profile text.
func (s *Store) SetProfile(ctx context.Context, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profile (id, content, updated_at)
		VALUES (1, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT(id) DO UPDATE SET
			content    = excluded.content,
			updated_at = excluded.updated_at`,
		content,
	)
	if err != nil {
		return fmt.Errorf("sqlite: set profile: %w", err)
	}
	return nil
}

// AddMemory stores a memory snippet.
func (s *Store) AddMemory(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, "INSERT INTO memories (content) VALUES (?)", content); err != nil {
		return fmt.Errorf("sqlite: add memory: %w", err)
	}
	return nil
}

// SearchRelevant implements ctxengine.MemorySource using FTS5 full-text
// search. BM25 rank is mapped onto a [0,1) score (stronger match, higher
// score); results below minScore are filtered out.
//
// This is lexical search, not embedding similarity. It stands in for a
// semantic backend behind the same interface.
func (s *Store) SearchRelevant(ctx context.Context, query string, maxResults int, minScore float64) ([]ctxengine.MemoryHit, error) {
	if maxResults <= 0 {
		return nil, nil
	}

	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.content, rank
		FROM memories_fts
		JOIN memories m ON m.id = memories_fts.rowid
		WHERE memories_fts MATCH ?
		ORDER BY rank
		LIMIT ?`,
		match, maxResults,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: search memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []ctxengine.MemoryHit
	for rows.Next() {
		var (
			content string
			rank    float64
		)
		if err := rows.Scan(&content, &rank); err != nil {
			return nil, fmt.Errorf("sqlite: scan memory: %w", err)
		}
		score := rankToScore(rank)
		if score < minScore {
			continue
		}
		hits = append(hits, ctxengine.MemoryHit{Content: content, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate memories: %w", err)
	}
	return hits, nil
}

// rankToScore maps an FTS5 BM25 rank (more negative is more relevant)
// onto [0,1): score rises towards 1 as the match strengthens.
func rankToScore(rank float64) float64 {
	return 1.0 - 1.0/(1.0+math.Abs(rank))
}

// ftsQuery sanitises free-form user text into an FTS5 OR-query. FTS5
// treats quotes, hyphens, and column filters as syntax; quoting each
// bare token sidesteps all of it.
func ftsQuery(query string) string {
	fields := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(fields) == 0 {
		return ""
	}

	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + f + `"`
	}
	return strings.Join(quoted, " OR ")
}
