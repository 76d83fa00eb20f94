package jsconfig

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	pkgerrors "github.com/pkg/errors"
)

// Global is the process-wide default configuration. It starts uninitialized,
// becomes locked on Init and only returns to the uninitialized state through
// Reset. Reads never take the mutex.
type Global struct {
	mu        sync.Mutex
	current   atomic.Pointer[Snapshot]
	locked    atomic.Bool
	strict    atomic.Bool
	initStack string
}

// NewGlobal returns an uninitialized global holding the defaults for strict.
func NewGlobal(strict bool) *Global {
	g := &Global{}
	g.strict.Store(strict)
	g.current.Store(defaultsFor(strict))
	return g
}

// Effective is the snapshot used when no scope is active. Callers must not
// modify it.
func (g *Global) Effective() *Snapshot {
	return g.current.Load()
}

// Locked reports whether Init has been called since the last Reset.
func (g *Global) Locked() bool {
	return g.locked.Load()
}

// StrictMode reports whether lock violations are reported as errors.
func (g *Global) StrictMode() bool {
	return g.strict.Load()
}

// InitStack returns the call stack captured by the first Init, if any.
func (g *Global) InitStack() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.initStack
}

// Defaults returns the defaults matching the current strict mode.
func (g *Global) Defaults() *Snapshot {
	return defaultsFor(g.StrictMode())
}

// Init locks the global configuration. A nil snapshot keeps the current one.
// Calling Init again returns *AlreadyInitializedError in strict mode and
// otherwise replaces the snapshot.
func (g *Global) Init(snapshot *Snapshot) error {
	_, err := g.initialize(snapshot)
	return err
}

func (g *Global) initialize(snapshot *Snapshot) (reinit bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.locked.Load() {
		if g.strict.Load() {
			return true, &AlreadyInitializedError{InitStack: g.initStack}
		}
		reinit = true
	} else {
		g.initStack = captureStack()
	}
	if snapshot != nil {
		g.current.Store(Copy(snapshot))
	}
	g.locked.Store(true)
	return reinit, nil
}

// AssertNotInit returns a copy of the global snapshot while direct mutation
// is still allowed. Once locked it returns *ConfigurationLockedError in strict
// mode. Writes to the copy are not published; use Mutate for that.
func (g *Global) AssertNotInit() (*Snapshot, error) {
	current, err := g.assertNotInit("AssertNotInit")
	if err != nil {
		return nil, err
	}
	return Copy(current), nil
}

func (g *Global) assertNotInit(op string) (*Snapshot, error) {
	if g.locked.Load() && g.strict.Load() {
		return nil, &ConfigurationLockedError{Op: op}
	}
	return g.current.Load(), nil
}

// Mutate applies fn to a copy of the global snapshot and publishes the result.
// It is the only direct mutation path and is subject to AssertNotInit.
func (g *Global) Mutate(op string, fn func(*Snapshot)) error {
	_, err := g.mutate(op, fn)
	return err
}

func (g *Global) mutate(op string, fn func(*Snapshot)) (tolerated bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	current, err := g.assertNotInit(op)
	if err != nil {
		return false, err
	}
	next := Copy(current)
	if fn != nil {
		fn(next)
	}
	g.current.Store(next)
	return g.locked.Load(), nil
}

// UnsafeOverride replaces the global snapshot without checking the lock. It
// is meant for process bootstrap: code that already read the locked
// configuration is not told about the change.
func (g *Global) UnsafeOverride(snapshot *Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if snapshot == nil {
		snapshot = defaultsFor(g.strict.Load())
	}
	g.current.Store(Copy(snapshot))
}

// Reset unlocks the global and restores the defaults. Intended for tests.
func (g *Global) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.locked.Store(false)
	g.initStack = ""
	g.current.Store(defaultsFor(g.strict.Load()))
}

// SetStrictMode toggles strict mode. ThrowOnError on the global snapshot
// follows the new value even when the configuration is locked.
func (g *Global) SetStrictMode(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.strict.Store(on)
	next := Copy(g.current.Load())
	next.ThrowOnError = on
	g.current.Store(next)
}

func captureStack() string {
	trace := fmt.Sprintf("%+v", pkgerrors.New("init"))
	return strings.TrimPrefix(trace, "init")
}
