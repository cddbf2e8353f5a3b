package ctxengine

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ModelInfo is the raw payload returned by a model-introspection endpoint.
type ModelInfo struct {
	// Info holds the structured model metadata. The context length is
	// reported under an architecture-specific key such as
	// "llama.context_length" or "qwen2.context_length".
	Info map[string]any

	// Parameters is a free-form parameter listing that may contain a
	// "num_ctx <N>" line when the structured field is absent.
	Parameters string
}

// Introspector queries a live endpoint for model metadata.
type Introspector interface {
	Show(ctx context.Context, model string) (ModelInfo, error)
}

// CatalogEntry is the persisted metadata for one model.
type CatalogEntry struct {
	ContextWindow  int
	RecommendedCtx int
}

// Catalog reads persisted model metadata keyed by model id.
type Catalog interface {
	ModelWindow(ctx context.Context, model string) (CatalogEntry, error)
}

// familyWindows maps a model family (the part of the model name before
// the first ':') to a known context window. Used when both live
// introspection and the catalog fail.
var familyWindows = map[string]int{
	"qwen3":       32768,
	"qwen2.5":     32768,
	"qwen2":       32768,
	"llama3.1":    131072,
	"llama3.2":    131072,
	"llama3":      8192,
	"mistral":     32768,
	"mixtral":     32768,
	"gemma2":      8192,
	"gemma3":      131072,
	"phi3":        4096,
	"deepseek-r1": 131072,
}

// numCtxPattern extracts "num_ctx <N>" from a free-form parameter listing.
var numCtxPattern = regexp.MustCompile(`num_ctx\s+(\d+)`)

// Resolver resolves a model's true context window through a layered
// fallback chain. Every step failure is soft: the chain never returns an
// error, only a value.
type Resolver struct {
	cache        *WindowCache
	introspector Introspector
	catalog      Catalog
	timeout      time.Duration
	logger       *slog.Logger
}

// NewResolver creates a Resolver. Both introspector and catalog may be
// nil; the corresponding resolution steps are then skipped.
func NewResolver(cache *WindowCache, introspector Introspector, catalog Catalog, logger *slog.Logger) *Resolver {
	if cache == nil {
		cache = NewWindowCache(MaxCacheEntries, CacheTTL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		cache:        cache,
		introspector: introspector,
		catalog:      catalog,
		timeout:      IntrospectTimeout,
		logger:       logger,
	}
}

// Cache exposes the resolver's window cache (for stats and test isolation).
func (r *Resolver) Cache() *WindowCache {
	return r.cache
}

// ContextWindow resolves the context window for model. Resolution order,
// first success wins: cache, live introspection, catalog, family fallback,
// hard default. Any resolution beyond the cache refreshes the cache entry.
func (r *Resolver) ContextWindow(ctx context.Context, model string) int {
	if window, ok := r.cache.Get(model); ok {
		return window
	}

	window := r.resolveUncached(ctx, model)
	r.cache.Put(model, window)
	return window
}

// resolveUncached runs introspection, catalog, and fallback steps in order.
func (r *Resolver) resolveUncached(ctx context.Context, model string) int {
	if r.introspector != nil {
		introCtx, cancel := context.WithTimeout(ctx, r.timeout)
		info, err := r.introspector.Show(introCtx, model)
		cancel()
		if err != nil {
			r.logger.Debug("ctxengine: model introspection failed",
				"model", model, "error", err)
		} else if window := contextLengthFromInfo(info); window > 0 {
			r.logger.Debug("ctxengine: context window from introspection",
				"model", model, "window", window)
			return window
		}
	}

	if r.catalog != nil {
		entry, err := r.catalog.ModelWindow(ctx, model)
		if err != nil {
			r.logger.Debug("ctxengine: catalog lookup failed",
				"model", model, "error", err)
		} else if entry.ContextWindow > 0 {
			r.logger.Debug("ctxengine: context window from catalog",
				"model", model, "window", entry.ContextWindow)
			return entry.ContextWindow
		}
	}

	if window, ok := familyWindows[modelFamily(model)]; ok {
		r.logger.Debug("ctxengine: context window from family fallback",
			"model", model, "family", modelFamily(model), "window", window)
		return window
	}

	r.logger.Info("ctxengine: context window unresolved, using default",
		"model", model, "window", DefaultContextWindow)
	return DefaultContextWindow
}

// RecommendedCtx returns the recommended operating window for model:
// the catalog recommendation when present, otherwise the resolved window
// clamped into [4096, 16384].
func (r *Resolver) RecommendedCtx(ctx context.Context, model string) int {
	if r.catalog != nil {
		entry, err := r.catalog.ModelWindow(ctx, model)
		if err == nil && entry.RecommendedCtx > 0 {
			return entry.RecommendedCtx
		}
	}

	return RecommendedForWindow(r.ContextWindow(ctx, model))
}

// RecommendedForWindow clamps a resolved window into the recommended
// operating range [4096, 16384].
func RecommendedForWindow(window int) int {
	if window < recommendedCtxMin {
		return recommendedCtxMin
	}
	if window > recommendedCtxMax {
		return recommendedCtxMax
	}
	return window
}

// WindowFromInfo extracts a context length from introspection metadata.
// It returns 0 when the metadata carries none.
func WindowFromInfo(info ModelInfo) int {
	return contextLengthFromInfo(info)
}

// FallbackWindow returns the family fallback window for model, or the
// hard default when the family is unknown.
func FallbackWindow(model string) int {
	if window, ok := familyWindows[modelFamily(model)]; ok {
		return window
	}
	return DefaultContextWindow
}

// ResponseReserve returns the token count held back for the model's reply.
// The 16384 and 8192 tiers are intentionally equal.
func ResponseReserve(contextWindow int) int {
	switch {
	case contextWindow >= 32768:
		return 4096
	case contextWindow >= 16384:
		return 2048
	case contextWindow >= 8192:
		return 2048
	default:
		return 1024
	}
}

// contextLengthFromInfo extracts a context length from introspection
// metadata: any "*context_length" key in the structured info, falling
// back to a "num_ctx <N>" token in the parameter listing.
func contextLengthFromInfo(info ModelInfo) int {
	for key, value := range info.Info {
		if !strings.HasSuffix(key, "context_length") {
			continue
		}
		if n := numericValue(value); n > 0 {
			return n
		}
	}

	if m := numCtxPattern.FindStringSubmatch(info.Parameters); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}

	return 0
}

// numericValue coerces the dynamic JSON types a context length may
// arrive as.
func numericValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	}
	return 0
}

// modelFamily returns the part of a model name before the first ':'.
func modelFamily(model string) string {
	family, _, _ := strings.Cut(model, ":")
	return family
}
