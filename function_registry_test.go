package jsconfig

import (
	"errors"
	"testing"
)

func TestFunctionRegistryRejectsUnbindableNames(t *testing.T) {
	registry := NewFunctionRegistry()
	for _, name := range []string{"", "2x", "my-fn", "max_depth", "scope", "call"} {
		if err := registry.Register(name, double); !errors.Is(err, ErrInvalidFunctionName) {
			t.Fatalf("expected %q to be rejected, got %v", name, err)
		}
	}
	if err := registry.Register("double", double); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("double", double); !errors.Is(err, ErrInvalidFunctionName) {
		t.Fatalf("expected duplicate to be rejected, got %v", err)
	}
	if err := registry.Register("Double", double); err != nil {
		t.Fatalf("names are case-sensitive, got %v", err)
	}
	if names := registry.Names(); len(names) != 2 || names[0] != "Double" || names[1] != "double" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestFunctionRegistryCall(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("double", double); err != nil {
		t.Fatalf("register: %v", err)
	}
	out, err := registry.Call("double", 21)
	if err != nil || out != 42 {
		t.Fatalf("expected 42, got %v (%v)", out, err)
	}
	if _, err := registry.Call("triple", 1); !errors.Is(err, ErrUnknownFunction) {
		t.Fatalf("expected ErrUnknownFunction, got %v", err)
	}
	if _, err := registry.Call("double", "x"); err == nil || err.Error() != "jsconfig: function double: double needs an integer" {
		t.Fatalf("expected wrapped helper error, got %v", err)
	}

	var missing *FunctionRegistry
	if _, err := missing.Call("double", 1); !errors.Is(err, ErrUnknownFunction) {
		t.Fatalf("expected ErrUnknownFunction from nil registry, got %v", err)
	}
}

func TestWithFunctionRegistryTakesCopy(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("double", double); err != nil {
		t.Fatalf("register: %v", err)
	}
	rt := New(WithStrictMode(false), WithFunctionRegistry(registry))
	if err := registry.Register("late", double); err != nil {
		t.Fatalf("register: %v", err)
	}
	if names := rt.functions.Names(); len(names) != 1 || names[0] != "double" {
		t.Fatalf("expected runtime to keep its own copy, got %v", names)
	}
}
