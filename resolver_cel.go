package translatable

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// CELResolverOption configures the CEL resolver.
type CELResolverOption func(*celResolver)

// CELWithProgramCache wires a ProgramCache into the CEL resolver.
func CELWithProgramCache(cache ProgramCache) CELResolverOption {
	return func(r *celResolver) {
		r.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL resolver.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELResolverOption {
	return func(r *celResolver) {
		if registry == nil {
			return
		}
		r.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celResolver struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELResolver constructs a Resolver backed by cel-go.
func NewCELResolver(opts ...CELResolverOption) Resolver {
	r := &celResolver{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *celResolver) Resolve(ctx RuleContext, rule string) (any, error) {
	if rule == "" {
		return nil, fmt.Errorf("rule must not be empty")
	}
	ctx = ctx.withDefaults()
	snapshot := snapshotAsMap(ctx.Snapshot)
	program, err := r.loadOrCompile(rule, snapshot)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(r.activation(ctx, snapshot))
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

func (r *celResolver) Compile(rule string, _ ...CompileOption) (CompiledRule, error) {
	if rule == "" {
		return nil, fmt.Errorf("rule must not be empty")
	}
	return &celCompiledRule{
		resolver: r,
		rule:     rule,
	}, nil
}

func (r *celResolver) loadOrCompile(rule string, snapshot map[string]any) (*celProgram, error) {
	if snapshot == nil {
		snapshot = map[string]any{}
	}
	if r.cache != nil {
		if cached, ok := r.cache.Get(rule); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := r.buildEnv(snapshot)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(rule)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, err
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if r.cache != nil {
		r.cache.Set(rule, bundle)
	}
	return bundle, nil
}

func (r *celResolver) buildEnv(snapshot map[string]any) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
		celgo.Variable("field", celgo.StringType),
	}
	if r.registry != nil {
		// CEL has no variadic declarations; extra arguments travel as a list
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_name",
				[]*celgo.Type{celgo.StringType}, celgo.DynType,
				celgo.FunctionBinding(r.callBinding())),
			celgo.Overload("call_name_args",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)}, celgo.DynType,
				celgo.FunctionBinding(r.callBinding())),
		))
	}
	for key := range snapshot {
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (r *celResolver) activation(ctx RuleContext, snapshot map[string]any) map[string]any {
	activation := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"field":    ctx.Field,
	}
	for key, value := range snapshot {
		activation[key] = value
	}
	return activation
}

type celCompiledRule struct {
	resolver *celResolver
	rule     string
}

func (c *celCompiledRule) Resolve(ctx RuleContext) (any, error) {
	if c.resolver == nil {
		return nil, fmt.Errorf("cel compiled rule missing resolver")
	}
	ctx = ctx.withDefaults()
	snapshot := snapshotAsMap(ctx.Snapshot)
	program, err := c.resolver.loadOrCompile(c.rule, snapshot)
	if err != nil {
		return nil, err
	}
	out, _, err := program.program.Eval(c.resolver.activation(ctx, snapshot))
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}

func snapshotAsMap(value any) map[string]any {
	if value == nil {
		return map[string]any{}
	}
	if m, ok := value.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func (r *celResolver) callBinding() func(...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		if r.registry == nil {
			return types.NewErr("translatable: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("translatable: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("translatable: call name must be string")
		}
		var args []any
		if len(values) > 1 {
			lister, ok := values[1].(traits.Lister)
			if !ok {
				return types.NewErr("translatable: call arguments must be a list")
			}
			for it := lister.Iterator(); it.HasNext() == types.True; {
				args = append(args, it.Next().Value())
			}
		}
		result, err := r.registry.Call(name, args...)
		if err != nil {
			return types.WrapErr(err)
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
