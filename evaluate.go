package jsconfig

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Engine names accepted by NewEvaluator.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// NewEvaluator builds the named engine wired to cache and registry, either of
// which may be nil.
func NewEvaluator(engine string, cache ProgramCache, registry *FunctionRegistry) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry)), nil
	case EngineCEL:
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry)), nil
	case EngineJS:
		if !jsEvaluatorAvailable() {
			return nil, fmt.Errorf("%w: js engine requires the js_eval build tag", ErrNoEvaluator)
		}
		return NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry)), nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrNoEvaluator, engine)
	}
}

// WithEvaluator replaces the default expr engine.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *runtimeConfig) {
		cfg.evaluator = e
	}
}

// WithProgramCache sets the cache used by the default engine.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *runtimeConfig) {
		cfg.cache = cache
	}
}

// RuleContext returns the evaluation inputs for the flow carried by ctx.
func (rt *Runtime) RuleContext(ctx context.Context) RuleContext {
	head := rt.storage.head(ctx)
	return RuleContext{
		Snapshot: head.current(rt.global).Values(),
		Depth:    head.scopeDepth(),
		Scope:    head.scopeLabel(),
	}
}

// Evaluate runs expr against the effective configuration of ctx. Option values
// are bound by their snake_case names, e.g. "max_depth > 10".
func (rt *Runtime) Evaluate(ctx context.Context, expr string) (Response[any], error) {
	return rt.EvaluateWith(ctx, RuleContext{}, expr)
}

// EvaluateWith runs expr with rc, filling the snapshot and scope from ctx when
// rc leaves them empty.
func (rt *Runtime) EvaluateWith(ctx context.Context, rc RuleContext, expr string) (Response[any], error) {
	if expr == "" {
		return Response[any]{}, fmt.Errorf("jsconfig: expression must not be empty")
	}
	evaluator, err := rt.resolveEvaluator()
	if err != nil {
		return Response[any]{}, err
	}
	if rc.Snapshot == nil {
		flow := rt.RuleContext(ctx)
		rc.Snapshot = flow.Snapshot
		if rc.Scope == "" {
			rc.Scope = flow.Scope
			rc.Depth = flow.Depth
		}
	}
	rc = rc.withDefaults()

	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(rc, expr)
	evalErr = evaluationError(engine, PhaseRun, expr, rc.scopeLabel(), evalErr)

	fields := Fields{
		"engine":   engine,
		"expr":     expr,
		"scope":    rc.scopeLabel(),
		"duration": time.Since(start),
	}
	if evalErr != nil {
		fields["error"] = evalErr.Error()
		rt.logger.Debug("jsconfig: expression failed", fields)
		return Response[any]{}, evalErr
	}
	rt.logger.Debug("jsconfig: expression evaluated", fields)
	return Response[any]{Value: value}, nil
}

// Compile prepares expr with the runtime's engine. Evaluate the rule with
// RuleContext(ctx) to bind it to a flow.
func (rt *Runtime) Compile(expr string, opts ...CompileOption) (CompiledRule, error) {
	evaluator, err := rt.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	return evaluator.Compile(expr, opts...)
}

func (rt *Runtime) resolveEvaluator() (Evaluator, error) {
	rt.evalMu.Lock()
	defer rt.evalMu.Unlock()
	if rt.evaluator != nil {
		return rt.evaluator, nil
	}
	evaluator, err := NewEvaluator(EngineExpr, rt.cache, rt.functions)
	if err != nil {
		return nil, err
	}
	rt.evaluator = evaluator
	return evaluator, nil
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return EngineExpr
	case *celEvaluator:
		return EngineCEL
	}
	if fmt.Sprintf("%T", e) == "*jsconfig.jsEvaluator" {
		return EngineJS
	}
	return "custom"
}

// Evaluate runs expr on the process runtime.
func Evaluate(ctx context.Context, expr string) (Response[any], error) {
	return Default().Evaluate(ctx, expr)
}
