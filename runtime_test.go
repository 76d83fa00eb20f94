package jsconfig

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/goliatone/go-jsconfig/pkg/activity"
	"github.com/goliatone/go-jsconfig/platform"
)

func TestRuntimeEmitsLifecycleEvents(t *testing.T) {
	capture := &activity.CaptureHook{}
	rt := New(
		WithStrictMode(false),
		WithActivityHooks(capture),
		WithActivityChannel("audit"),
		WithActorID("ops"),
	)

	if err := rt.Init(nil); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := rt.Set(WithMaxDepth(9)); err != nil {
		t.Fatalf("set: %v", err)
	}
	rt.UnsafeOverride(nil)
	rt.SetStrictMode(true)
	rt.Reset()

	want := []string{
		activity.VerbInitialized,
		activity.VerbMutated,
		activity.VerbOverridden,
		activity.VerbStrictMode,
		activity.VerbReset,
	}
	if got := capture.Verbs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	events := capture.Events()
	mutated := events[1]
	if mutated.ActorID != "ops" || mutated.Channel != "audit" {
		t.Fatalf("unexpected event envelope %+v", mutated)
	}
	if mutated.Metadata["op"] != "Set" || mutated.Metadata["locked"] != true {
		t.Fatalf("unexpected metadata %v", mutated.Metadata)
	}
	values, ok := mutated.Metadata["values"].(map[string]any)
	if !ok || values["max_depth"] != 9 {
		t.Fatalf("expected values after the mutation, got %v", mutated.Metadata["values"])
	}
}

func TestRuntimeEmitsScopeMisuse(t *testing.T) {
	capture := &activity.CaptureHook{}
	rt := New(WithStrictMode(false), WithActivityHooks(capture))
	ctx := context.Background()
	ctxA, guardA := rt.BeginScopeWith(ctx, "A")
	_, guardB := rt.BeginScopeWith(ctxA, "B")

	if err := guardA.Close(); err == nil {
		t.Fatalf("expected misuse")
	}
	events := capture.Events()
	if len(events) != 1 || events[0].Verb != activity.VerbScopeMisuse {
		t.Fatalf("expected one misuse event, got %v", capture.Verbs())
	}
	if events[0].ObjectID != guardA.ID().String() || events[0].Metadata["guard_label"] != "A" {
		t.Fatalf("unexpected misuse event %+v", events[0])
	}
	_ = guardB.Close()
	_ = guardA.Close()
}

func TestRuntimeHookFailureIsLogged(t *testing.T) {
	logs := &recordingLogger{}
	failing := activity.HookFunc(func(context.Context, activity.Event) error {
		return errors.New("sink down")
	})
	rt := New(WithStrictMode(false), WithActivityHooks(failing), WithLogger(logs.logger()))
	if err := rt.Init(nil); err != nil {
		t.Fatalf("hook failures must not fail Init: %v", err)
	}
	entry, ok := logs.find("jsconfig: activity hook failed")
	if !ok || entry.fields["verb"] != activity.VerbInitialized {
		t.Fatalf("expected hook failure to be logged, got %+v", entry)
	}
}

func TestRuntimeStrictModeFromCapabilities(t *testing.T) {
	rt := New(WithCapabilities(platform.Capabilities{StrictMode: true}))
	if !rt.StrictMode() || !rt.Defaults().ThrowOnError {
		t.Fatalf("strict mode should come from capabilities")
	}
	if rt.Storage().Name() != StorageFlow {
		t.Fatalf("flow storage should be the default")
	}

	rt = New(WithCapabilities(platform.Capabilities{StrictMode: true}), WithStrictMode(false))
	if rt.StrictMode() {
		t.Fatalf("WithStrictMode should win over capabilities")
	}
}

func TestRuntimeLogsDetectionFailures(t *testing.T) {
	logs := &recordingLogger{}
	caps := platform.Capabilities{Failures: []platform.DetectionError{{Flag: "strict_mode", Err: errors.New("bad value")}}}
	New(WithCapabilities(caps), WithLogger(logs.logger()))
	entry, ok := logs.find("jsconfig: platform detection failed, using default")
	if !ok || entry.level != LevelDebug || entry.fields["flag"] != "strict_mode" {
		t.Fatalf("expected detection failure at debug, got %+v", entry)
	}
}
