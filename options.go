package highlight

import (
	"log/slog"
	"time"
)

type config struct {
	logger     *slog.Logger
	groups     GroupTable
	expiration time.Duration
	queries    *QueryCache
}

// Option configures a Registry.
type Option func(*config)

// WithLogger sets the logger. Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithGroups sets the table capture names are resolved with. Defaults to [DefaultGroups].
func WithGroups(groups GroupTable) Option {
	return func(c *config) {
		c.groups = groups
	}
}

// WithQueryExpiration sets how long unused highlight queries stay cached.
// Defaults to [DefaultQueryExpiration].
func WithQueryExpiration(expiration time.Duration) Option {
	return func(c *config) {
		c.expiration = expiration
	}
}

// WithQueryCache shares a QueryCache between registries. It takes precedence over
// WithGroups and WithQueryExpiration.
func WithQueryCache(queries *QueryCache) Option {
	return func(c *config) {
		c.queries = queries
	}
}
