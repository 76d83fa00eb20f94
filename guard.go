package jsconfig

import "github.com/google/uuid"

// Guard closes the scope returned by BeginScope. Close it with defer on the
// flow that opened it.
type Guard struct {
	rt    *Runtime
	frame *frame
}

// ID is the identity of the scope entry this guard owns.
func (g *Guard) ID() uuid.UUID {
	if g == nil {
		return uuid.Nil
	}
	return g.frame.id
}

// Label is the optional name given to BeginScopeWith.
func (g *Guard) Label() string {
	if g == nil {
		return ""
	}
	return g.frame.label
}

// Snapshot is the configuration this scope made effective.
func (g *Guard) Snapshot() *Snapshot {
	if g == nil {
		return nil
	}
	return g.frame.snapshot
}

// Closed reports whether Close has already popped the scope.
func (g *Guard) Closed() bool {
	return g == nil || g.frame.closed.Load()
}

// Close ends the scope. Closing twice is a no-op. Closing a scope while a
// scope opened inside it is still open, or closing it from another goroutine
// under goroutine storage, returns *ScopeMisuseError and leaves every scope
// open.
func (g *Guard) Close() error {
	if g == nil || g.frame.closed.Load() {
		return nil
	}
	return g.rt.closeScope(g)
}
