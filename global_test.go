package jsconfig

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
)

type logEntry struct {
	level  Level
	msg    string
	fields Fields
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (r *recordingLogger) logger() Logger {
	return LoggerFunc(func(level Level, msg string, f Fields) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.entries = append(r.entries, logEntry{level: level, msg: msg, fields: f})
	})
}

func (r *recordingLogger) find(msg string) (logEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

func TestGlobalStartsUnlocked(t *testing.T) {
	g := NewGlobal(true)
	if g.Locked() {
		t.Fatalf("new global must be unlocked")
	}
	s, err := g.AssertNotInit()
	if err != nil || s == nil {
		t.Fatalf("assert before init: %v", err)
	}
	if !g.Effective().ThrowOnError {
		t.Fatalf("strict global should throw on error")
	}
}

func TestAssertNotInitReturnsPrivateCopy(t *testing.T) {
	g := NewGlobal(false)
	published := g.Effective()

	s, err := g.AssertNotInit()
	if err != nil {
		t.Fatalf("assert: %v", err)
	}
	if s == published {
		t.Fatalf("expected a copy, got the published snapshot")
	}
	s.MaxDepth = 7
	s.ExcludePropertyReferences = append(s.ExcludePropertyReferences, "User.Password")
	if g.Effective().MaxDepth != DefaultMaxDepth || len(g.Effective().ExcludePropertyReferences) != 0 {
		t.Fatalf("writes to the copy leaked into the global")
	}

	if err := g.Mutate("SetMaxDepth", func(s *Snapshot) { s.MaxDepth = 7 }); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if g.Effective().MaxDepth != 7 {
		t.Fatalf("mutate should publish the change")
	}
}

func TestInitWithoutSnapshotKeepsDefaults(t *testing.T) {
	g := NewGlobal(false)
	before := g.Effective()
	if err := g.Init(nil); err != nil {
		t.Fatalf("init: %v", err)
	}
	if g.Effective() != before {
		t.Fatalf("init(nil) should keep the current snapshot")
	}
	if !g.Locked() {
		t.Fatalf("init should lock")
	}
	if !strings.Contains(g.InitStack(), "TestInitWithoutSnapshotKeepsDefaults") {
		t.Fatalf("init stack should name the caller, got %q", g.InitStack())
	}
}

func TestInitCopiesSnapshot(t *testing.T) {
	g := NewGlobal(false)
	custom := Defaults().With(WithMaxDepth(7))
	if err := g.Init(custom); err != nil {
		t.Fatalf("init: %v", err)
	}
	custom.MaxDepth = 1
	if g.Effective().MaxDepth != 7 {
		t.Fatalf("global must not share the caller's snapshot")
	}
}

func TestInitTwiceStrict(t *testing.T) {
	g := NewGlobal(true)
	if err := g.Init(nil); err != nil {
		t.Fatalf("first init: %v", err)
	}
	err := g.Init(Defaults().With(WithMaxDepth(3)))
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
	var initErr *AlreadyInitializedError
	if !errors.As(err, &initErr) || initErr.InitStack == "" {
		t.Fatalf("expected error to carry the first init stack")
	}
	if g.Effective().MaxDepth != DefaultMaxDepth {
		t.Fatalf("rejected init must not change the snapshot")
	}
}

func TestInitTwiceLenientReplaces(t *testing.T) {
	g := NewGlobal(false)
	if err := g.Init(nil); err != nil {
		t.Fatalf("first init: %v", err)
	}
	first := g.InitStack()
	if err := g.Init(Defaults().With(WithMaxDepth(3))); err != nil {
		t.Fatalf("second init should be tolerated: %v", err)
	}
	if g.Effective().MaxDepth != 3 {
		t.Fatalf("last write should win")
	}
	if g.InitStack() != first {
		t.Fatalf("init stack should keep the first call site")
	}
}

func TestLockEnforcementStrict(t *testing.T) {
	rt := New(WithStrictMode(true))
	if err := rt.Init(nil); err != nil {
		t.Fatalf("init: %v", err)
	}
	err := rt.Set(WithMaxDepth(5))
	if !errors.Is(err, ErrConfigurationLocked) {
		t.Fatalf("expected ErrConfigurationLocked, got %v", err)
	}
	var lockErr *ConfigurationLockedError
	if !errors.As(err, &lockErr) || lockErr.Op != "Set" {
		t.Fatalf("expected op Set, got %+v", lockErr)
	}
	if rt.Current(context.Background()).MaxDepth != DefaultMaxDepth {
		t.Fatalf("rejected mutation must not apply")
	}
	if _, err := rt.AssertNotInit(); !errors.Is(err, ErrConfigurationLocked) {
		t.Fatalf("expected AssertNotInit to fail, got %v", err)
	}
}

func TestLockEnforcementLenient(t *testing.T) {
	logs := &recordingLogger{}
	rt := New(WithStrictMode(false), WithLogger(logs.logger()))
	if err := rt.Init(nil); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := rt.Set(WithMaxDepth(5)); err != nil {
		t.Fatalf("lenient mutation should succeed: %v", err)
	}
	if rt.Current(context.Background()).MaxDepth != 5 {
		t.Fatalf("mutation should be visible")
	}
	entry, ok := logs.find("jsconfig: mutating locked configuration")
	if !ok || entry.level != LevelWarn || entry.fields["op"] != "Set" {
		t.Fatalf("expected a warning for the tolerated mutation, got %+v", entry)
	}
}

func TestMutateBeforeInit(t *testing.T) {
	rt := New(WithStrictMode(true))
	before := rt.Current(context.Background())
	if err := rt.Mutate("tune", func(s *Snapshot) { s.EscapeUnicode = true }); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	after := rt.Current(context.Background())
	if !after.EscapeUnicode {
		t.Fatalf("mutation should apply before init")
	}
	if before.EscapeUnicode {
		t.Fatalf("mutation must publish a new snapshot, not edit the old one")
	}
}

func TestScenarioResetAfterInit(t *testing.T) {
	rt := New(WithStrictMode(true))
	if err := rt.Init(Defaults().With(WithMaxDepth(2), WithTextCase(TextCaseSnakeCase))); err != nil {
		t.Fatalf("init: %v", err)
	}
	rt.Reset()

	if rt.Global().Locked() {
		t.Fatalf("reset should unlock")
	}
	if rt.Global().InitStack() != "" {
		t.Fatalf("reset should clear the init stack")
	}
	current := rt.Current(context.Background())
	if !reflect.DeepEqual(current.Values(), rt.Defaults().Values()) {
		t.Fatalf("reset should restore the defaults, got %v", current.Values())
	}
	if current.TypeFinder == nil || current.TypeWriter == nil {
		t.Fatalf("reset should restore the default strategies")
	}
	if err := rt.Init(nil); err != nil {
		t.Fatalf("init after reset: %v", err)
	}
}

func TestUnsafeOverrideBypassesLock(t *testing.T) {
	rt := New(WithStrictMode(true))
	if err := rt.Init(nil); err != nil {
		t.Fatalf("init: %v", err)
	}
	rt.UnsafeOverride(Defaults().With(WithMaxDepth(11)))
	if rt.Current(context.Background()).MaxDepth != 11 {
		t.Fatalf("override should replace the snapshot")
	}
	if !rt.Global().Locked() {
		t.Fatalf("override must not unlock")
	}
	rt.UnsafeOverride(nil)
	if rt.Current(context.Background()).MaxDepth != DefaultMaxDepth {
		t.Fatalf("override(nil) should restore the defaults")
	}
}

func TestSetStrictModeFollowsThrowOnError(t *testing.T) {
	rt := New(WithStrictMode(false))
	if err := rt.Init(nil); err != nil {
		t.Fatalf("init: %v", err)
	}
	rt.SetStrictMode(true)
	if !rt.StrictMode() || !rt.Current(context.Background()).ThrowOnError {
		t.Fatalf("strict mode should turn on ThrowOnError")
	}
	if err := rt.Set(WithMaxDepth(4)); !errors.Is(err, ErrConfigurationLocked) {
		t.Fatalf("strict mode should now reject mutation, got %v", err)
	}
	rt.SetStrictMode(false)
	if rt.Current(context.Background()).ThrowOnError {
		t.Fatalf("lenient mode should turn off ThrowOnError")
	}
}

func TestInitLogging(t *testing.T) {
	logs := &recordingLogger{}
	rt := New(WithStrictMode(true), WithLogger(logs.logger()))
	_ = rt.Init(nil)
	_ = rt.Init(nil)

	if e, ok := logs.find("jsconfig: configuration initialized"); !ok || e.level != LevelInfo {
		t.Fatalf("expected info log for first init")
	}
	if e, ok := logs.find("jsconfig: init called twice"); !ok || e.level != LevelError {
		t.Fatalf("expected error log for second init")
	}
}
