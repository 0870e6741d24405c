//go:build js_eval

package translatable

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsResolver struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSResolver constructs a Resolver backed by goja.
func NewJSResolver(opts ...JSResolverOption) Resolver {
	cfg := applyJSResolverOptions(opts)
	return &jsResolver{
		cache:    cfg.cache,
		registry: cfg.registry,
	}
}

func (r *jsResolver) Resolve(ctx RuleContext, rule string) (any, error) {
	if rule == "" {
		return nil, fmt.Errorf("rule must not be empty")
	}
	ctx = ctx.withDefaults()
	if r.cache == nil {
		return r.run(ctx, rule, nil)
	}
	program, err := r.loadOrCompile(rule)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, rule, program)
}

func (r *jsResolver) Compile(rule string, _ ...CompileOption) (CompiledRule, error) {
	if rule == "" {
		return nil, fmt.Errorf("rule must not be empty")
	}
	program, err := r.loadOrCompile(rule)
	if err != nil {
		return nil, err
	}
	return &jsCompiledRule{
		resolver: r,
		rule:     rule,
		program:  program,
	}, nil
}

func (r *jsResolver) loadOrCompile(rule string) (*goja.Program, error) {
	if r.cache != nil {
		if cached, ok := r.cache.Get(rule); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", r.wrapRule(rule), false)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Set(rule, program)
	}
	return program, nil
}

func (r *jsResolver) run(ctx RuleContext, rule string, program *goja.Program) (any, error) {
	vm := goja.New()
	r.injectContext(vm, ctx)
	if program != nil {
		value, err := vm.RunProgram(program)
		if err != nil {
			return nil, err
		}
		return value.Export(), nil
	}
	value, err := vm.RunString(r.wrapRule(rule))
	if err != nil {
		return nil, err
	}
	return value.Export(), nil
}

func (r *jsResolver) injectContext(vm *goja.Runtime, ctx RuleContext) {
	vm.Set("now", ctx.timestamp())
	vm.Set("args", ctx.Args)
	vm.Set("metadata", ctx.Metadata)
	vm.Set("field", ctx.Field)
	if snapshot, ok := ctx.Snapshot.(map[string]any); ok {
		for key, value := range snapshot {
			vm.Set(key, value)
		}
	}
	if r.registry != nil {
		vm.Set("call", func(name string, arguments ...any) (any, error) {
			return r.registry.Call(name, arguments...)
		})
		for _, name := range r.registry.Names() {
			fn := name
			vm.Set(fn, func(arguments ...any) (any, error) {
				return r.registry.Call(fn, arguments...)
			})
		}
	}
}

func (r *jsResolver) wrapRule(rule string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", rule)
}

type jsCompiledRule struct {
	resolver *jsResolver
	rule     string
	program  *goja.Program
}

func (c *jsCompiledRule) Resolve(ctx RuleContext) (any, error) {
	if c.resolver == nil {
		return nil, fmt.Errorf("js compiled rule missing resolver")
	}
	ctx = ctx.withDefaults()
	return c.resolver.run(ctx, c.rule, c.program)
}

func jsResolverAvailable() bool {
	return true
}
