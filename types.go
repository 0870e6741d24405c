package translatable

import (
	"time"

	"github.com/goliatone/go-translatable/pkg/document"
	"github.com/goliatone/go-translatable/pkg/tracking"
)

// Settings is the configuration surface supplied at schema-augmentation
// time: the initial default language, the full set of allowed codes, an
// optional initial active language, and an optional resolution rule.
type Settings struct {
	DefaultLanguage string
	Languages       []string
	ActiveLanguage  string
	// Rule is an optional expression evaluated against the document snapshot
	// to pick the active language before schema-wide state is consulted.
	Rule string
}

// RuleContext carries inputs needed when resolving a language rule.
type RuleContext struct {
	Snapshot any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Field    string
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaults()
	return *ctx.Now
}

func (ctx RuleContext) fieldLabel() string {
	if ctx.Field != "" {
		return ctx.Field
	}
	return "document"
}

// Resolver executes language rules against a rule context.
type Resolver interface {
	Resolve(ctx RuleContext, rule string) (any, error)
	Compile(rule string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable rule program.
type CompiledRule interface {
	Resolve(ctx RuleContext) (any, error)
}

// CompileOption configures resolver compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// Option configures a Schema during augmentation.
type Option func(*schemaConfig)

type schemaConfig struct {
	resolver     Resolver
	programCache ProgramCache
	functions    *FunctionRegistry
	logger       ResolverLogger
	hooks        tracking.Hooks
	connection   *document.Connection
	channel      string
}

func applyOptions(opts []Option) schemaConfig {
	cfg := schemaConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithResolver configures the rule resolver backend used by the schema.
func WithResolver(r Resolver) Option {
	return func(cfg *schemaConfig) {
		cfg.resolver = r
	}
}

// WithConnection registers the augmented schema against conn instead of the
// process default connection.
func WithConnection(conn *document.Connection) Option {
	return func(cfg *schemaConfig) {
		cfg.connection = conn
	}
}

// WithTrackingHooks attaches change-tracking hooks to the schema. Hooks are
// cloned and nil entries dropped to preserve immutability.
func WithTrackingHooks(hooks tracking.Hooks) Option {
	normalized := cloneTrackingHooks(hooks)
	return func(cfg *schemaConfig) {
		cfg.hooks = normalized
	}
}

// WithTrackingChannel overrides the channel stamped on emitted change events.
func WithTrackingChannel(channel string) Option {
	return func(cfg *schemaConfig) {
		cfg.channel = channel
	}
}

func cloneTrackingHooks(hooks tracking.Hooks) tracking.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]tracking.ChangeHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return tracking.Hooks(normalized)
}
