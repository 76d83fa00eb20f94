//go:build js_eval

package jsconfig

import (
	"context"
	"testing"
)

func TestJSEvaluator(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("double", double); err != nil {
		t.Fatalf("register: %v", err)
	}
	evaluator, err := NewEvaluator(EngineJS, newMapCache(), registry)
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	rt := New(WithStrictMode(false), WithEvaluator(evaluator))
	scoped, guard := rt.BeginScopeWith(context.Background(), "script", WithMaxDepth(7))
	defer guard.Close()

	res, err := rt.Evaluate(scoped, "max_depth === 7 && scope.label === 'script'")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Value != true {
		t.Fatalf("expected true, got %v", res.Value)
	}
	if evaluatorEngineName(evaluator) != EngineJS {
		t.Fatalf("unexpected engine name")
	}
}
