package jsconfig

import (
	"bytes"
	"context"
	"runtime"
	"strconv"
	"sync"
)

// Storage decides where the head of a flow's scope chain lives. A Runtime
// uses one strategy for its whole life.
type Storage interface {
	// Name identifies the strategy in logs and traces.
	Name() string

	head(ctx context.Context) *frame
	// push publishes f as the new head. The returned context must be used by
	// code running inside the scope.
	push(ctx context.Context, f *frame) context.Context
	// pop runs after f was closed.
	pop(f *frame)
	owns(f *frame) bool
	fork(ctx context.Context, base *Snapshot) context.Context
}

const (
	StorageFlow      = "flow"
	StorageGoroutine = "goroutine"
)

type flowKey struct{}

type flowStorage struct{}

// FlowStorage carries the scope chain in the context.Context passed through
// the call graph. Each scope is a new context value pointing at its parent,
// so goroutines handed a context see its scopes and nothing opened by their
// siblings.
func FlowStorage() Storage {
	return flowStorage{}
}

func (flowStorage) Name() string { return StorageFlow }

func (flowStorage) head(ctx context.Context) *frame {
	if ctx == nil {
		return nil
	}
	f, _ := ctx.Value(flowKey{}).(*frame)
	return f
}

func (flowStorage) push(ctx context.Context, f *frame) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, flowKey{}, f)
}

func (flowStorage) pop(*frame) {}

func (flowStorage) owns(*frame) bool { return true }

func (flowStorage) fork(ctx context.Context, base *Snapshot) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if base == nil {
		return ctx
	}
	return context.WithValue(ctx, flowKey{}, inheritedFrame(base))
}

// GoroutineOption configures GoroutineStorage.
type GoroutineOption func(*goroutineStorage)

// WithOSThreadAffinity locks the goroutine to its OS thread while it has
// scopes open.
func WithOSThreadAffinity() GoroutineOption {
	return func(s *goroutineStorage) {
		s.affinity = true
	}
}

type goroutineStorage struct {
	mu       sync.RWMutex
	heads    map[int64]*frame
	affinity bool
}

// GoroutineStorage binds each scope chain to the goroutine that opened it.
// Scopes are not visible to other goroutines, including ones started inside
// the scope, and a guard can only be closed by its own goroutine.
func GoroutineStorage(opts ...GoroutineOption) Storage {
	s := &goroutineStorage{heads: map[int64]*frame{}}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *goroutineStorage) Name() string { return StorageGoroutine }

func (s *goroutineStorage) head(context.Context) *frame {
	id := goroutineID()
	s.mu.RLock()
	f := s.heads[id]
	s.mu.RUnlock()
	return f
}

func (s *goroutineStorage) push(ctx context.Context, f *frame) context.Context {
	f.owner = goroutineID()
	s.mu.Lock()
	s.heads[f.owner] = f
	s.mu.Unlock()
	if s.affinity {
		runtime.LockOSThread()
	}
	return ctx
}

func (s *goroutineStorage) pop(f *frame) {
	if s.affinity {
		runtime.UnlockOSThread()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heads[f.owner] != f {
		return
	}
	if parent := f.parent.active(); parent != nil {
		s.heads[f.owner] = parent
		return
	}
	delete(s.heads, f.owner)
}

func (s *goroutineStorage) owns(f *frame) bool {
	return f != nil && f.owner == goroutineID()
}

// fork returns ctx unchanged: a new goroutine starts from the global.
func (s *goroutineStorage) fork(ctx context.Context, _ *Snapshot) context.Context {
	return ctx
}

func (s *goroutineStorage) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.heads)
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the id from the "goroutine N [state]:" header written by
// runtime.Stack.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	header := bytes.TrimPrefix(buf[:n], goroutinePrefix)
	if i := bytes.IndexByte(header, ' '); i > 0 {
		header = header[:i]
	}
	id, err := strconv.ParseInt(string(header), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
