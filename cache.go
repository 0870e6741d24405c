package translatable

// ProgramCache stores compiled rule programs keyed by rule strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache on the schema.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *schemaConfig) {
		cfg.programCache = cache
	}
}
