package jsconfig

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownFunction reports a call to a name nothing was registered under.
	ErrUnknownFunction = errors.New("jsconfig: unknown function")
	// ErrInvalidFunctionName reports a name engines cannot bind, or one that
	// would shadow an option or a built-in binding.
	ErrInvalidFunctionName = errors.New("jsconfig: invalid function name")
)

// Function is a helper callable from rules, either by name or through
// call('name', [args]).
type Function func(args ...any) (any, error)

// reservedBindings are the names every engine already binds next to the
// option values.
var reservedBindings = map[string]struct{}{
	"config": {}, "now": {}, "args": {}, "metadata": {}, "scope": {}, "call": {},
}

// FunctionRegistry holds the helpers exposed to rules. Names are
// case-sensitive identifiers, as the engines bind them as globals.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: map[string]Function{}}
}

// Register adds fn under name. Option keys such as max_depth and the built-in
// bindings cannot be used, and a name can only be registered once.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("jsconfig: function %q is nil", name)
	}
	if err := validateFunctionName(name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = map[string]Function{}
	}
	if _, exists := r.functions[name]; exists {
		return fmt.Errorf("%w: %q is already registered", ErrInvalidFunctionName, name)
	}
	r.functions[name] = fn
	return nil
}

func validateFunctionName(name string) error {
	if !isIdentifier(name) {
		return fmt.Errorf("%w: %q is not an identifier", ErrInvalidFunctionName, name)
	}
	if _, ok := reservedBindings[name]; ok {
		return fmt.Errorf("%w: %q is a built-in binding", ErrInvalidFunctionName, name)
	}
	for _, key := range PatchKeys() {
		if key == name {
			return fmt.Errorf("%w: %q is an option name", ErrInvalidFunctionName, name)
		}
	}
	return nil
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// Clone copies the registry so later registrations do not reach a runtime
// that already captured it.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &FunctionRegistry{functions: make(map[string]Function, len(r.functions))}
	for name, fn := range r.functions {
		out.functions[name] = fn
	}
	return out
}

// Call runs the helper registered under name. Errors it returns are wrapped
// with the name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	var fn Function
	if r != nil {
		r.mu.RLock()
		fn = r.functions[name]
		r.mu.RUnlock()
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	out, err := fn(args...)
	if err != nil {
		return nil, fmt.Errorf("jsconfig: function %s: %w", name, err)
	}
	return out, nil
}

// Names lists the registered helpers in order.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithFunctionRegistry exposes a copy of registry to the default evaluator.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *runtimeConfig) {
		if registry != nil {
			cfg.functions = registry.Clone()
		}
	}
}

// WithCustomFunction registers one helper for the default evaluator. An
// invalid name is dropped; use WithFunctionRegistry to see the error.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *runtimeConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}
