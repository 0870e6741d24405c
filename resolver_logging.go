package translatable

import "time"

// ResolverLogEvent describes a rule resolution attempt for logging.
type ResolverLogEvent struct {
	Engine   string
	Rule     string
	Field    string
	Duration time.Duration
	Err      error
}

// ResolverLogger records resolver events.
type ResolverLogger interface {
	LogResolution(ResolverLogEvent)
}

// ResolverLoggerFunc adapts a function to ResolverLogger.
type ResolverLoggerFunc func(ResolverLogEvent)

// LogResolution implements ResolverLogger.
func (f ResolverLoggerFunc) LogResolution(event ResolverLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopResolverLogger struct{}

func (noopResolverLogger) LogResolution(ResolverLogEvent) {}

// WithResolverLogger attaches a resolver logger to the schema.
func WithResolverLogger(logger ResolverLogger) Option {
	return func(cfg *schemaConfig) {
		if logger == nil {
			cfg.logger = noopResolverLogger{}
			return
		}
		cfg.logger = logger
	}
}
