package jsconfig

import "time"

// RuleContext carries the inputs of an expression evaluation. Snapshot holds
// the option values as produced by Snapshot.Values.
type RuleContext struct {
	Snapshot map[string]any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	// Scope is the label of the innermost scope, empty at the global level.
	Scope string
	Depth int
}

// Response stores a typed result produced by an evaluator.
type Response[T any] struct {
	Value T
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule is a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

// ProgramCache stores compiled programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
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
	if ctx.Now == nil {
		return time.Now()
	}
	return *ctx.Now
}

func (ctx RuleContext) scopeLabel() string {
	if ctx.Scope != "" {
		return ctx.Scope
	}
	if ctx.Depth > 0 {
		return "anonymous"
	}
	return "global"
}

func (ctx RuleContext) scopeBinding() map[string]any {
	return map[string]any{
		"label": ctx.scopeLabel(),
		"depth": ctx.Depth,
	}
}

// bindings is the variable set shared by every engine: the option values at
// top level plus now, args, metadata, scope and config.
func (ctx RuleContext) bindings() map[string]any {
	env := make(map[string]any, len(ctx.Snapshot)+5)
	for key, value := range ctx.Snapshot {
		env[key] = value
	}
	env["config"] = ctx.Snapshot
	env["now"] = ctx.timestamp()
	env["args"] = ctx.Args
	env["metadata"] = ctx.Metadata
	env["scope"] = ctx.scopeBinding()
	return env
}
