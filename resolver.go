package translatable

import (
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-translatable/pkg/document"
)

var ErrNoResolver = errors.New("translatable: resolver not configured")

// ruleLanguage evaluates the schema's language rule against the document
// snapshot. Anything other than a string naming a configured language is
// discarded: rule failures never surface to field access, they only log.
func (s *Schema) ruleLanguage(doc *document.Document) (string, bool) {
	rule := s.rule
	if rule == "" {
		return "", false
	}
	resolver, err := s.resolveResolver()
	if err != nil {
		return "", false
	}

	var snapshot map[string]any
	if doc != nil {
		snapshot = doc.Snapshot()
	}
	ctx := RuleContext{Snapshot: snapshot}.withDefaults()
	engine := resolverEngineName(resolver)
	start := time.Now()
	value, resolveErr := resolver.Resolve(ctx, rule)
	duration := time.Since(start)
	resolveErr = wrapResolutionError("", rule, ctx.fieldLabel(), resolveErr)
	s.resolverLogger().LogResolution(ResolverLogEvent{
		Engine:   engine,
		Rule:     rule,
		Field:    ctx.fieldLabel(),
		Duration: duration,
		Err:      resolveErr,
	})
	if resolveErr != nil {
		return "", false
	}

	code, ok := value.(string)
	if !ok {
		return "", false
	}
	normalized, ok := normalizeLanguage(code)
	if !ok || !s.langs.contains(normalized) {
		return "", false
	}
	return normalized, true
}

// resolveResolver reads the resolver wired at augmentation time. The schema
// never mutates resolver state after New, so concurrent rule evaluation needs
// no locking here.
func (s *Schema) resolveResolver() (Resolver, error) {
	if s.cfg.resolver == nil {
		return nil, ErrNoResolver
	}
	return s.cfg.resolver, nil
}

// defaultResolver builds the expr backend used when no resolver option was
// supplied.
func defaultResolver(cfg schemaConfig) Resolver {
	var exprOpts []ExprResolverOption
	if cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cfg.programCache))
	}
	if cfg.functions != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
	}
	return NewExprResolver(exprOpts...)
}

func resolverEngineName(r Resolver) string {
	if r == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", r) {
	case "*translatable.exprResolver":
		return "expr"
	case "*translatable.celResolver":
		return "cel"
	case "*translatable.jsResolver":
		return "js"
	default:
		return "custom"
	}
}
