package gateway

import (
	"context"
	"log/slog"
	"testing"

	ctxengine "github.com/braidhq/braid/internal/context"
)

// staticIntrospector reports a fixed context length for every model.
type staticIntrospector struct {
	window int
	err    error
}

func (s staticIntrospector) Show(_ context.Context, _ string) (ctxengine.ModelInfo, error) {
	if s.err != nil {
		return ctxengine.ModelInfo{}, s.err
	}
	return ctxengine.ModelInfo{
		Info: map[string]any{"llama.context_length": float64(s.window)},
	}, nil
}

// fakeCatalog implements Catalog for handler tests.
type fakeCatalog struct {
	models []ModelEntry
	err    error
}

func (f *fakeCatalog) Models(_ context.Context) ([]ModelEntry, error) {
	return f.models, f.err
}

// newTestServer builds a Server with an 8192-window resolver and a
// bare assembler. Collaborators can be attached via opts.
func newTestServer(t *testing.T, opts Opts) *Server {
	t.Helper()

	resolver := ctxengine.NewResolver(
		ctxengine.NewWindowCache(ctxengine.MaxCacheEntries, ctxengine.CacheTTL),
		staticIntrospector{window: 8192},
		nil,
		slog.Default(),
	)
	tok := ctxengine.NewCharTokenizer(4)
	assembler := ctxengine.NewAssembler(resolver, tok, ctxengine.AssemblerOpts{})

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return New(Config{}, resolver, assembler, opts)
}
