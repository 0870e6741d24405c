package translatable

import (
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-translatable/pkg/document"
)

var resolverFactories = []struct {
	name string
	rule string
	new  func(cache ProgramCache, registry *FunctionRegistry) Resolver
}{
	{
		name: "expr",
		rule: "locale",
		new: func(cache ProgramCache, registry *FunctionRegistry) Resolver {
			opts := []ExprResolverOption{}
			if cache != nil {
				opts = append(opts, ExprWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, ExprWithFunctionRegistry(registry))
			}
			return NewExprResolver(opts...)
		},
	},
	{
		name: "cel",
		rule: "locale",
		new: func(cache ProgramCache, registry *FunctionRegistry) Resolver {
			opts := []CELResolverOption{}
			if cache != nil {
				opts = append(opts, CELWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, CELWithFunctionRegistry(registry))
			}
			return NewCELResolver(opts...)
		},
	},
	{
		name: "js",
		rule: "locale",
		new: func(cache ProgramCache, registry *FunctionRegistry) Resolver {
			opts := []JSResolverOption{}
			if cache != nil {
				opts = append(opts, JSWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, JSWithFunctionRegistry(registry))
			}
			return NewJSResolver(opts...)
		},
	},
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]any
	sets    int
}

func (c *mapCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	return value, ok
}

func (c *mapCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string]any{}
	}
	c.entries[key] = value
	c.sets++
}

func TestResolverBackendsResolveSnapshotField(t *testing.T) {
	for _, factory := range resolverFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			resolver := factory.new(nil, nil)
			if resolver == nil {
				t.Skipf("%s resolver unavailable in this build", factory.name)
			}
			value, err := resolver.Resolve(RuleContext{
				Snapshot: map[string]any{"locale": "fr"},
			}, factory.rule)
			if err != nil {
				t.Fatalf("unexpected error from Resolve: %v", err)
			}
			if value != "fr" {
				t.Fatalf("expected snapshot field value, got %v", value)
			}
		})
	}
}

func TestResolverCompiledRuleReuse(t *testing.T) {
	for _, factory := range resolverFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			resolver := factory.new(&mapCache{}, nil)
			if resolver == nil {
				t.Skipf("%s resolver unavailable in this build", factory.name)
			}
			compiled, err := resolver.Compile(factory.rule)
			if err != nil {
				t.Fatalf("unexpected error from Compile: %v", err)
			}
			for _, locale := range []string{"fr", "de"} {
				value, err := compiled.Resolve(RuleContext{
					Snapshot: map[string]any{"locale": locale},
				})
				if err != nil {
					t.Fatalf("unexpected error from compiled rule: %v", err)
				}
				if value != locale {
					t.Fatalf("expected %q, got %v", locale, value)
				}
			}
		})
	}
}

func TestExprResolverProgramCache(t *testing.T) {
	cache := &mapCache{}
	resolver := NewExprResolver(ExprWithProgramCache(cache))

	for range 3 {
		if _, err := resolver.Resolve(RuleContext{
			Snapshot: map[string]any{"locale": "fr"},
		}, "locale"); err != nil {
			t.Fatalf("unexpected error from Resolve: %v", err)
		}
	}
	if cache.sets != 1 {
		t.Fatalf("expected one compile per rule, got %d cache writes", cache.sets)
	}
}

func TestExprResolverFunctionRegistry(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("preferred", func(args ...any) (any, error) {
		return "de", nil
	}); err != nil {
		t.Fatalf("unexpected error from Register: %v", err)
	}

	resolver := NewExprResolver(ExprWithFunctionRegistry(registry))
	value, err := resolver.Resolve(RuleContext{}, "preferred()")
	if err != nil {
		t.Fatalf("unexpected error from Resolve: %v", err)
	}
	if value != "de" {
		t.Fatalf("expected registry function result, got %v", value)
	}
}

func TestSchemaRuleResolution(t *testing.T) {
	conn := document.NewConnection()
	model := articleModel(t, "rule-articles")
	schema, err := New(model, Settings{
		DefaultLanguage: "en",
		Languages:       []string{"en", "fr", "de"},
		Rule:            `locale != nil ? locale : "en"`,
	}, WithConnection(conn))
	if err != nil {
		t.Fatalf("schema augmentation failed: %v", err)
	}

	doc := schema.NewDocument()
	doc.RawSet("locale", "fr")
	doc.RawSet("title", "Hello")
	doc.RawSet("i18n.fr.title", "Bonjour")

	if got := schema.DocumentLanguage(doc); got != "fr" {
		t.Fatalf("expected rule result to govern resolution, got %q", got)
	}
	value, trace := schema.ResolveField(doc, "title")
	if value != "Bonjour" {
		t.Fatalf("expected rule-selected overlay value, got %v", value)
	}
	if trace.LanguageSource != LanguageSourceRule {
		t.Fatalf("expected rule language source, got %q", trace.LanguageSource)
	}

	// the instance override still has precedence over the rule
	schema.SetDocumentLanguage(doc, "en")
	if got := schema.DocumentLanguage(doc); got != "en" {
		t.Fatalf("expected override to win over rule, got %q", got)
	}
}

func TestSchemaRuleFailSoft(t *testing.T) {
	var events []ResolverLogEvent
	logger := ResolverLoggerFunc(func(event ResolverLogEvent) {
		events = append(events, event)
	})

	schema, err := New(articleModel(t, "rule-failsoft"), Settings{
		DefaultLanguage: "en",
		Languages:       []string{"en", "fr"},
		Rule:            "((broken",
	}, WithConnection(document.NewConnection()), WithResolverLogger(logger))
	if err != nil {
		t.Fatalf("schema augmentation failed: %v", err)
	}

	doc := schema.NewDocument()
	if got := schema.DocumentLanguage(doc); got != "en" {
		t.Fatalf("expected broken rule to degrade to default, got %q", got)
	}
	if len(events) == 0 {
		t.Fatalf("expected resolver logger to record the failure")
	}
	last := events[len(events)-1]
	if last.Err == nil || last.Engine != "expr" {
		t.Fatalf("unexpected log event %+v", last)
	}
}

func TestCELResolverCallHelper(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("preferred", func(args ...any) (any, error) {
		if len(args) > 0 {
			if code, ok := args[0].(string); ok {
				return code, nil
			}
		}
		return "de", nil
	}); err != nil {
		t.Fatalf("unexpected error from Register: %v", err)
	}

	resolver := NewCELResolver(CELWithFunctionRegistry(registry))

	value, err := resolver.Resolve(RuleContext{}, `call("preferred")`)
	if err != nil {
		t.Fatalf("unexpected error from Resolve: %v", err)
	}
	if value != "de" {
		t.Fatalf("expected registry function result, got %v", value)
	}

	value, err = resolver.Resolve(RuleContext{}, `call("preferred", ["fr"])`)
	if err != nil {
		t.Fatalf("unexpected error from Resolve: %v", err)
	}
	if value != "fr" {
		t.Fatalf("expected list arguments forwarded, got %v", value)
	}
}

func TestSchemaRuleConcurrentResolution(t *testing.T) {
	schema, err := New(articleModel(t, "rule-concurrent"), Settings{
		DefaultLanguage: "en",
		Languages:       []string{"en", "fr"},
		Rule:            `"fr"`,
	}, WithConnection(document.NewConnection()))
	if err != nil {
		t.Fatalf("schema augmentation failed: %v", err)
	}

	doc := schema.NewDocument()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				if got := schema.DocumentLanguage(doc); got != "fr" {
					t.Errorf("expected rule language, got %q", got)
				}
			}
		}()
	}
	wg.Wait()
}

func TestRegisterLanguageHelperInRule(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.RegisterLanguage("market", func(args ...any) (string, error) {
		return "fr", nil
	}); err != nil {
		t.Fatalf("unexpected error from RegisterLanguage: %v", err)
	}
	if err := registry.RegisterLanguage("broken", nil); err == nil {
		t.Fatalf("expected nil helper to be rejected")
	}

	schema, err := New(articleModel(t, "rule-market"), Settings{
		DefaultLanguage: "en",
		Languages:       []string{"en", "fr"},
		Rule:            "market()",
	}, WithConnection(document.NewConnection()), WithFunctionRegistry(registry))
	if err != nil {
		t.Fatalf("schema augmentation failed: %v", err)
	}

	doc := schema.NewDocument()
	if got := schema.DocumentLanguage(doc); got != "fr" {
		t.Fatalf("expected helper-selected language, got %q", got)
	}
}

func TestSchemaRuleRejectsUnknownLanguage(t *testing.T) {
	schema, err := New(articleModel(t, "rule-unknown"), Settings{
		DefaultLanguage: "en",
		Languages:       []string{"en", "fr"},
		Rule:            `"es"`,
	}, WithConnection(document.NewConnection()))
	if err != nil {
		t.Fatalf("schema augmentation failed: %v", err)
	}

	doc := schema.NewDocument()
	if got := schema.DocumentLanguage(doc); got != "en" {
		t.Fatalf("expected unknown rule result to be discarded, got %q", got)
	}
}

func TestWrapResolutionErrorCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapResolutionError("expr", "locale && missing", "title", base)

	var resolutionErr *ResolutionError
	if !errors.As(err, &resolutionErr) {
		t.Fatalf("expected ResolutionError, got %T", err)
	}
	if resolutionErr.Engine != "expr" {
		t.Fatalf("expected engine expr, got %q", resolutionErr.Engine)
	}
	if resolutionErr.Rule != "locale && missing" {
		t.Fatalf("expected rule metadata, got %q", resolutionErr.Rule)
	}
	if resolutionErr.Field != "title" {
		t.Fatalf("expected field metadata, got %q", resolutionErr.Field)
	}
	if !errors.Is(resolutionErr.Err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
}

func TestWrapResolutionErrorAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &ResolutionError{
		Engine: "expr",
		Err:    base,
	}

	err := wrapResolutionError("cel", "rule", "summary", existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Rule != "rule" {
		t.Fatalf("rule should be filled, got %q", existing.Rule)
	}
	if existing.Field != "summary" {
		t.Fatalf("field should be filled, got %q", existing.Field)
	}
}
