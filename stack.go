package jsconfig

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// frame is one open scope. A flow's scopes form a chain through parent, the
// innermost frame being the head. Everything but the counters is fixed when
// the frame is published, so a chain can be read from any goroutine.
type frame struct {
	parent    *frame
	snapshot  *Snapshot
	id        uuid.UUID
	label     string
	depth     int
	owner     int64
	inherited bool

	// children counts open scopes whose parent is this frame; latest is the
	// one opened last.
	children atomic.Int32
	latest   atomic.Pointer[frame]
	closed   atomic.Bool
}

func newFrame(parent *frame, snapshot *Snapshot, label string) *frame {
	f := &frame{
		parent:   parent,
		snapshot: snapshot,
		id:       uuid.New(),
		label:    label,
	}
	if parent != nil {
		f.depth = parent.depth + 1
	} else {
		f.depth = 1
	}
	return f
}

// inheritedFrame anchors a forked flow on the snapshot its parent had.
func inheritedFrame(snapshot *Snapshot) *frame {
	return &frame{snapshot: snapshot, inherited: true}
}

// active skips frames that were closed while a context still carried them.
func (f *frame) active() *frame {
	for f != nil && f.closed.Load() {
		f = f.parent
	}
	return f
}

func (f *frame) current(global *Global) *Snapshot {
	if f = f.active(); f != nil {
		return f.snapshot
	}
	return global.Effective()
}

// scopeDepth is the number of open scopes in the chain, inherited anchors
// excluded.
func (f *frame) scopeDepth() int {
	if f = f.active(); f == nil {
		return 0
	}
	return f.depth
}

func (f *frame) scopeLabel() string {
	if f = f.active(); f == nil || f.inherited {
		return ""
	}
	return f.label
}

func (f *frame) attach(child *frame) {
	f.children.Add(1)
	f.latest.Store(child)
}

func (f *frame) detach(child *frame) {
	f.latest.CompareAndSwap(child, nil)
	f.children.Add(-1)
}

// innermost follows the most recently opened open child down from f.
func (f *frame) innermost() *frame {
	top := f
	for {
		next := top.latest.Load()
		if next == nil || next.closed.Load() {
			return top
		}
		top = next
	}
}

// chain lists the open frames from the outermost to f.
func (f *frame) chain() []*frame {
	var out []*frame
	for cur := f.active(); cur != nil; cur = cur.parent {
		if cur.closed.Load() {
			continue
		}
		out = append(out, cur)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
