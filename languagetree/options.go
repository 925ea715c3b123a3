package languagetree

import "log/slog"

// Option configures a Forest.
type Option func(*Forest)

// WithLogger sets the logger used by the forest. Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(f *Forest) {
		if logger != nil {
			f.logger = logger
		}
	}
}
