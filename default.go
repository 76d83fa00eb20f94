package jsconfig

import (
	"context"
	"sync"
	"sync/atomic"
)

var (
	defaultMu      sync.Mutex
	defaultRuntime atomic.Pointer[Runtime]
)

// Default returns the process runtime, creating it with default options on
// first use.
func Default() *Runtime {
	if rt := defaultRuntime.Load(); rt != nil {
		return rt
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if rt := defaultRuntime.Load(); rt != nil {
		return rt
	}
	rt := New()
	defaultRuntime.Store(rt)
	return rt
}

// Bootstrap creates the process runtime with opts. It must run before the
// first call to Default and fails with ErrAlreadyBootstrapped afterwards.
func Bootstrap(opts ...Option) (*Runtime, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRuntime.Load() != nil {
		return nil, ErrAlreadyBootstrapped
	}
	rt := New(opts...)
	defaultRuntime.Store(rt)
	return rt, nil
}

// Init locks the process configuration.
func Init(snapshot *Snapshot) error { return Default().Init(snapshot) }

// AssertNotInit returns a copy of the process snapshot while it may still be
// mutated through Mutate.
func AssertNotInit() (*Snapshot, error) { return Default().AssertNotInit() }

// Mutate changes the process configuration outside of any scope.
func Mutate(op string, fn func(*Snapshot)) error { return Default().Mutate(op, fn) }

// Set applies overrides to the process configuration.
func Set(overrides ...Override) error { return Default().Set(overrides...) }

// UnsafeOverride replaces the process configuration regardless of the lock.
func UnsafeOverride(snapshot *Snapshot) { Default().UnsafeOverride(snapshot) }

// Reset restores the process defaults. Test harnesses only.
func Reset() { Default().Reset() }

// SetStrictMode toggles strict mode on the process runtime.
func SetStrictMode(on bool) { Default().SetStrictMode(on) }

// Current returns the effective configuration for ctx.
func Current(ctx context.Context) *Snapshot { return Default().Current(ctx) }

// BeginScope opens a scope on the process runtime.
func BeginScope(ctx context.Context, overrides ...Override) (context.Context, *Guard) {
	return Default().BeginScope(ctx, overrides...)
}

// BeginScopeWith opens a labelled scope on the process runtime.
func BeginScopeWith(ctx context.Context, label string, overrides ...Override) (context.Context, *Guard) {
	return Default().BeginScopeWith(ctx, label, overrides...)
}

// Fork prepares ctx for a child flow of the process runtime.
func Fork(ctx context.Context) context.Context { return Default().Fork(ctx) }
