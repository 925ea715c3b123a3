package highlight

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/noclaps/go-tree-sitter-langtree/engine"
	"github.com/noclaps/go-tree-sitter-langtree/languagetree"
)

// Registry holds the active Highlighter of each render target, e.g. a buffer.
// There is at most one Highlighter per target: attaching a new one destroys the
// previous one. The registry itself is safe for concurrent use.
type Registry[T comparable] struct {
	mu           sync.Mutex
	queries      *QueryCache
	logger       *slog.Logger
	highlighters map[T]*Highlighter
}

// NewRegistry creates an empty Registry loading highlight queries from eng.
func NewRegistry[T comparable](eng engine.Engine, opts ...Option) *Registry[T] {
	cfg := config{
		logger:     slog.Default(),
		expiration: DefaultQueryExpiration,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.queries == nil {
		cfg.queries = NewQueryCache(eng, cfg.groups, cfg.expiration, cfg.logger)
	}

	return &Registry[T]{
		queries:      cfg.queries,
		logger:       cfg.logger,
		highlighters: make(map[T]*Highlighter),
	}
}

// Attach creates the Highlighter of target over tree, replacing any previous one,
// and parses tree. The rows reported by the parse are requested from host.
func (r *Registry[T]) Attach(ctx context.Context, target T, tree *languagetree.LanguageTree, host Host) (*Highlighter, error) {
	if !tree.Alive() {
		return nil, languagetree.ErrDestroyed
	}

	h := newHighlighter(tree, host, r.queries, r.logger)
	h.detach = func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.highlighters[target] == h {
			delete(r.highlighters, target)
		}
	}

	r.mu.Lock()
	prev := r.highlighters[target]
	r.highlighters[target] = h
	r.mu.Unlock()

	if prev != nil {
		r.logger.Debug("replacing highlighter",
			slog.String("target", fmt.Sprint(target)),
			slog.String("language", tree.Lang()))
		prev.Destroy()
	}

	if _, _, err := tree.Parse(ctx); err != nil {
		h.Destroy()
		return nil, fmt.Errorf("error parsing %s: %w", tree.Lang(), err)
	}
	h.generation = tree.Generation()

	return h, nil
}

// Get returns the Highlighter of target.
func (r *Registry[T]) Get(target T) (*Highlighter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.highlighters[target]
	return h, ok
}

// Detach destroys the Highlighter of target and reports whether there was one.
func (r *Registry[T]) Detach(target T) bool {
	h, ok := r.Get(target)
	if ok {
		h.Destroy()
	}
	return ok
}

// Len returns the number of active highlighters.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.highlighters)
}

// Queries returns the query cache of the registry.
func (r *Registry[T]) Queries() *QueryCache {
	return r.queries
}

// Close destroys every Highlighter.
func (r *Registry[T]) Close() {
	r.mu.Lock()
	highlighters := make([]*Highlighter, 0, len(r.highlighters))
	for _, h := range r.highlighters {
		highlighters = append(highlighters, h)
	}
	r.mu.Unlock()

	for _, h := range highlighters {
		h.Destroy()
	}
}
