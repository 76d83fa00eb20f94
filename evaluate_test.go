package jsconfig

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

type mapCache struct {
	mu    sync.Mutex
	items map[string]any
}

func newMapCache() *mapCache { return &mapCache{items: map[string]any{}} }

func (c *mapCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *mapCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

func (c *mapCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.items))
	for k := range c.items {
		out = append(out, k)
	}
	return out
}

func double(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, errors.New("double takes one argument")
	}
	switch v := args[0].(type) {
	case int:
		return v * 2, nil
	case int64:
		return v * 2, nil
	default:
		return nil, errors.New("double needs an integer")
	}
}

func TestEvaluateAgainstScope(t *testing.T) {
	logs := &recordingLogger{}
	cache := newMapCache()
	rt := New(WithStrictMode(false), WithProgramCache(cache), WithLogger(logs.logger()))
	ctx := context.Background()

	res, err := rt.Evaluate(ctx, "max_depth == 50 && scope.label == 'global'")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Value != true {
		t.Fatalf("expected true at global level, got %v", res.Value)
	}

	scoped, guard := rt.BeginScopeWith(ctx, "request", WithMaxDepth(20), WithTextCase(TextCaseSnakeCase))
	defer guard.Close()
	res, err = rt.Evaluate(scoped, "max_depth > 10 && text_case == 'snake_case' && scope.label == 'request' && scope.depth == 1")
	if err != nil {
		t.Fatalf("evaluate in scope: %v", err)
	}
	if res.Value != true {
		t.Fatalf("expected true inside the scope, got %v", res.Value)
	}

	res, err = rt.Evaluate(scoped, "config.max_depth")
	if err != nil || res.Value != 20 {
		t.Fatalf("expected config binding, got %v %v", res.Value, err)
	}

	found := false
	for _, key := range cache.keys() {
		if strings.HasPrefix(key, "expr:") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected compiled programs in the cache, got %v", cache.keys())
	}
	if e, ok := logs.find("jsconfig: expression evaluated"); !ok || e.fields["engine"] != EngineExpr || e.fields["scope"] != "request" {
		t.Fatalf("expected evaluation to be logged, got %+v", e)
	}
}

func TestEvaluateWithArgs(t *testing.T) {
	rt := New(WithStrictMode(false))
	res, err := rt.EvaluateWith(context.Background(), RuleContext{Args: map[string]any{"limit": 3}}, "args.limit * 2")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Value != 6 {
		t.Fatalf("expected 6, got %v", res.Value)
	}
}

func TestEvaluateCustomFunction(t *testing.T) {
	rt := New(WithStrictMode(false), WithCustomFunction("double", double))
	res, err := rt.Evaluate(context.Background(), "double(max_depth)")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Value != 100 {
		t.Fatalf("expected 100, got %v", res.Value)
	}
}

func TestEvaluateErrors(t *testing.T) {
	logs := &recordingLogger{}
	rt := New(WithStrictMode(false), WithLogger(logs.logger()))
	if _, err := rt.Evaluate(context.Background(), ""); !errors.Is(err, ErrEmptyExpression) {
		t.Fatalf("expected ErrEmptyExpression, got %v", err)
	}

	_, err := rt.Evaluate(context.Background(), "max_depth >")
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Engine != EngineExpr || evalErr.Expr != "max_depth >" || evalErr.Phase != PhaseCompile {
		t.Fatalf("expected EvaluationError, got %v", err)
	}
	if _, ok := logs.find("jsconfig: expression failed"); !ok {
		t.Fatalf("expected failure to be logged")
	}
}

func TestCompileReusesProgram(t *testing.T) {
	rt := New(WithStrictMode(false))
	rule, err := rt.Compile("max_depth * 2")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	ctx := context.Background()
	scoped, guard := rt.BeginScope(ctx, WithMaxDepth(4))
	defer guard.Close()

	global, err := rule.Evaluate(rt.RuleContext(ctx))
	if err != nil || global != 100 {
		t.Fatalf("expected 100 at global level, got %v %v", global, err)
	}
	inner, err := rule.Evaluate(rt.RuleContext(scoped))
	if err != nil || inner != 8 {
		t.Fatalf("expected 8 inside the scope, got %v %v", inner, err)
	}
}

func TestCELEvaluator(t *testing.T) {
	cache := newMapCache()
	registry := NewFunctionRegistry()
	if err := registry.Register("double", double); err != nil {
		t.Fatalf("register: %v", err)
	}
	evaluator, err := NewEvaluator(EngineCEL, cache, registry)
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	rt := New(WithStrictMode(false), WithEvaluator(evaluator))
	scoped, guard := rt.BeginScopeWith(context.Background(), "tenant", WithMaxDepth(12))
	defer guard.Close()

	res, err := rt.Evaluate(scoped, "max_depth > 10 && scope.label == 'tenant'")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Value != true {
		t.Fatalf("expected true, got %v", res.Value)
	}

	res, err = rt.Evaluate(scoped, "call('double', [max_depth])")
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res.Value != int64(24) {
		t.Fatalf("expected 24, got %v (%T)", res.Value, res.Value)
	}

	found := false
	for _, key := range cache.keys() {
		if strings.HasPrefix(key, "cel:") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected cel programs in the cache")
	}
	if evaluatorEngineName(evaluator) != EngineCEL {
		t.Fatalf("unexpected engine name")
	}

	if _, err := rt.Evaluate(scoped, "max_depth >"); err == nil {
		t.Fatalf("expected a compile error")
	}
}

func TestNewEvaluatorUnknownEngine(t *testing.T) {
	if _, err := NewEvaluator("lua", nil, nil); !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
	_, err := NewEvaluator(EngineJS, nil, nil)
	if jsEvaluatorAvailable() != (err == nil) {
		t.Fatalf("js engine availability mismatch: %v", err)
	}
}

func TestRuleContextScopeLabel(t *testing.T) {
	cases := []struct {
		rc   RuleContext
		want string
	}{
		{RuleContext{}, "global"},
		{RuleContext{Depth: 2}, "anonymous"},
		{RuleContext{Scope: "request", Depth: 1}, "request"},
	}
	for _, tc := range cases {
		if got := tc.rc.scopeLabel(); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}
