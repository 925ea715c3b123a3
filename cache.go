package highlight

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/noclaps/go-tree-sitter-langtree/engine"
)

const (
	// DefaultQueryExpiration is how long a compiled highlight query stays cached after
	// its last use.
	DefaultQueryExpiration = 30 * time.Minute
	defaultCleanupInterval = time.Hour
)

// QueryCache keeps the highlight queries of languages, so that every highlighter of
// a language shares one Query and its resolved groups.
type QueryCache struct {
	mu         sync.Mutex
	engine     engine.Engine
	groups     GroupTable
	expiration time.Duration
	cache      *gocache.Cache
	logger     *slog.Logger
}

// NewQueryCache creates a QueryCache compiling queries with eng. A zero expiration
// keeps queries until Flush.
func NewQueryCache(eng engine.Engine, groups GroupTable, expiration time.Duration, logger *slog.Logger) *QueryCache {
	if expiration == 0 {
		expiration = gocache.NoExpiration
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryCache{
		engine:     eng,
		groups:     groups,
		expiration: expiration,
		cache:      gocache.New(expiration, defaultCleanupInterval),
		logger:     logger,
	}
}

// Get returns the highlight query of language. A nil Query and nil error means the
// language has no highlight query.
func (c *QueryCache) Get(language string) (*Query, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if value, found := c.cache.Get(language); found {
		q, ok := value.(*Query)
		if !ok {
			c.logger.Error("wrong type in query cache", slog.String("language", language))
			c.cache.Delete(language)
		} else {
			c.logger.Debug("query cache hit", slog.String("language", language))
			// refresh the expiration of queries in use
			c.cache.Set(language, q, c.expiration)
			return q, nil
		}
	}

	eq, err := c.engine.Query(language, engine.QueryHighlights)
	if err != nil {
		return nil, fmt.Errorf("error loading highlight query for %s: %w", language, err)
	}

	var q *Query
	if eq != nil {
		q = NewQuery(language, eq, c.groups)
	}
	c.cache.Set(language, q, c.expiration)
	return q, nil
}

// Len returns the number of cached languages.
func (c *QueryCache) Len() int {
	return c.cache.ItemCount()
}

// Flush drops every cached query.
func (c *QueryCache) Flush() {
	c.cache.Flush()
}
