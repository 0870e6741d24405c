package translatable

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprResolverOption configures an expr resolver instance.
type ExprResolverOption func(*exprResolver)

// ExprWithProgramCache wires a ProgramCache into the expr resolver.
func ExprWithProgramCache(cache ProgramCache) ExprResolverOption {
	return func(r *exprResolver) {
		r.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr resolver.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprResolverOption {
	return func(r *exprResolver) {
		if registry == nil {
			return
		}
		r.registry = registry.Clone()
	}
}

// exprResolver executes language rules using github.com/expr-lang/expr.
type exprResolver struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprResolver constructs a Resolver backed by expr-lang/expr.
func NewExprResolver(opts ...ExprResolverOption) Resolver {
	r := &exprResolver{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve compiles and runs rule against ctx.Snapshot.
func (r *exprResolver) Resolve(ctx RuleContext, rule string) (any, error) {
	if rule == "" {
		return nil, wrapResolverError("expr", fmt.Errorf("rule must not be empty"))
	}
	ctx = ctx.withDefaults()
	env := r.environment(ctx)
	if r.cache == nil {
		result, err := exprlang.Eval(rule, env)
		if err != nil {
			return nil, wrapResolutionError("expr", rule, ctx.fieldLabel(), err)
		}
		return result, nil
	}
	program, err := r.loadOrCompile(rule)
	if err != nil {
		return nil, err
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return nil, wrapResolutionError("expr", rule, ctx.fieldLabel(), err)
	}
	return result, nil
}

// Compile returns a compiled rule that resolves per invocation.
func (r *exprResolver) Compile(rule string, _ ...CompileOption) (CompiledRule, error) {
	if rule == "" {
		return nil, wrapResolverError("expr", fmt.Errorf("rule must not be empty"))
	}
	program, err := r.loadOrCompile(rule)
	if err != nil {
		return nil, err
	}
	return &exprCompiledRule{
		resolver: r,
		program:  program,
		rule:     rule,
	}, nil
}

func (r *exprResolver) loadOrCompile(rule string) (*exprvm.Program, error) {
	if r.cache != nil {
		if cached, ok := r.cache.Get(rule); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range r.registryNames() {
		fn := r.registryFunction(name)
		options = append(options, exprlang.Function(name, fn))
	}
	program, err := exprlang.Compile(rule, options...)
	if err != nil {
		return nil, wrapResolutionError("expr", rule, "", err)
	}
	if r.cache != nil {
		r.cache.Set(rule, program)
	}
	return program, nil
}

type exprCompiledRule struct {
	resolver *exprResolver
	program  *exprvm.Program
	rule     string
}

func (c *exprCompiledRule) Resolve(ctx RuleContext) (any, error) {
	if c.resolver == nil {
		return nil, wrapResolverError("expr", fmt.Errorf("compiled rule missing resolver"))
	}
	ctx = ctx.withDefaults()
	if c.program == nil {
		return c.resolver.Resolve(ctx, c.rule)
	}
	env := c.resolver.environment(ctx)
	result, err := exprlang.Run(c.program, env)
	if err != nil {
		return nil, wrapResolutionError("expr", c.rule, ctx.fieldLabel(), err)
	}
	return result, nil
}

func (r *exprResolver) environment(ctx RuleContext) map[string]any {
	env := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
	}
	if ctx.Field != "" {
		env["field"] = ctx.Field
	}
	if snapshot, ok := ctx.Snapshot.(map[string]any); ok {
		for key, value := range snapshot {
			env[key] = value
		}
	}
	if r.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return r.registry.Call(name, arguments...)
		}
		for _, name := range r.registry.Names() {
			fn := name
			env[fn] = func(arguments ...any) (any, error) {
				return r.registry.Call(fn, arguments...)
			}
		}
	}
	return env
}

func (r *exprResolver) registryNames() []string {
	if r == nil || r.registry == nil {
		return nil
	}
	return r.registry.Names()
}

func (r *exprResolver) registryFunction(name string) func(...any) (any, error) {
	if r == nil || r.registry == nil {
		return nil
	}
	return func(arguments ...any) (any, error) {
		return r.registry.Call(name, arguments...)
	}
}
