package observation

import "log/slog"

// Option configures an extractor.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	structureCheck bool
}

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStructureCheck makes caching extractors fingerprint the problem
// structure on every Extract. When the structure differs from the cached one,
// a warning is logged and the cache is rebuilt instead of failing.
func WithStructureCheck() Option {
	return func(o *options) {
		o.structureCheck = true
	}
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
