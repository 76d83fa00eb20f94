package jsconfig

import (
	"context"
	"sync"

	"github.com/goliatone/go-jsconfig/pkg/activity"
	"github.com/goliatone/go-jsconfig/platform"
)

// Runtime binds a Global, a Storage strategy and the collaborators used for
// diagnostics. Most programs use the process runtime returned by Default.
type Runtime struct {
	global  *Global
	storage Storage
	logger  Logger
	emitter *activity.Emitter
	actorID string
	caps    platform.Capabilities

	evalMu    sync.Mutex
	evaluator Evaluator
	cache     ProgramCache
	functions *FunctionRegistry
}

// Option configures a Runtime.
type Option func(*runtimeConfig)

type runtimeConfig struct {
	storage   Storage
	strict    *bool
	logger    Logger
	caps      *platform.Capabilities
	hooks     activity.Hooks
	channel   string
	actorID   string
	evaluator Evaluator
	cache     ProgramCache
	functions *FunctionRegistry
}

// WithStorage selects the context-local storage strategy. FlowStorage is used
// when unset.
func WithStorage(storage Storage) Option {
	return func(cfg *runtimeConfig) {
		cfg.storage = storage
	}
}

// WithStrictMode overrides the strict mode reported by the platform.
func WithStrictMode(on bool) Option {
	return func(cfg *runtimeConfig) {
		cfg.strict = &on
	}
}

// WithLogger sets the lifecycle logger.
func WithLogger(logger Logger) Option {
	return func(cfg *runtimeConfig) {
		cfg.logger = logger
	}
}

// WithCapabilities replaces platform detection.
func WithCapabilities(caps platform.Capabilities) Option {
	return func(cfg *runtimeConfig) {
		cfg.caps = &caps
	}
}

// WithActivityHooks registers hooks notified of lifecycle transitions.
func WithActivityHooks(hooks ...activity.ActivityHook) Option {
	return func(cfg *runtimeConfig) {
		cfg.hooks = append(cfg.hooks, hooks...)
	}
}

// WithActivityChannel sets the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *runtimeConfig) {
		cfg.channel = channel
	}
}

// WithActorID sets the actor recorded on emitted events.
func WithActorID(id string) Option {
	return func(cfg *runtimeConfig) {
		cfg.actorID = id
	}
}

// New builds a Runtime. Platform capabilities are detected once here.
func New(opts ...Option) *Runtime {
	cfg := runtimeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	caps := platform.Current()
	if cfg.caps != nil {
		caps = *cfg.caps
	}
	strict := caps.StrictMode
	if cfg.strict != nil {
		strict = *cfg.strict
	}
	storage := cfg.storage
	if storage == nil {
		storage = FlowStorage()
	}
	logger := cfg.logger
	if logger == nil {
		logger = NopLogger{}
	}

	rt := &Runtime{
		global:    NewGlobal(strict),
		storage:   storage,
		logger:    logger,
		emitter:   activity.NewEmitter(cfg.hooks, activity.Config{Enabled: true, Channel: cfg.channel}),
		actorID:   cfg.actorID,
		caps:      caps,
		evaluator: cfg.evaluator,
		cache:     cfg.cache,
		functions: cfg.functions,
	}
	for _, failure := range caps.Failures {
		logger.Debug("jsconfig: platform detection failed, using default", Fields{
			"flag":  failure.Flag,
			"error": failure.Err.Error(),
		})
	}
	return rt
}

// Capabilities returns the platform flags the runtime was built with.
func (rt *Runtime) Capabilities() platform.Capabilities {
	return rt.caps
}

// Storage returns the active storage strategy.
func (rt *Runtime) Storage() Storage {
	return rt.storage
}

// Global exposes the process default managed by the runtime.
func (rt *Runtime) Global() *Global {
	return rt.global
}

// Defaults returns the documented defaults for the runtime's strict mode.
func (rt *Runtime) Defaults() *Snapshot {
	return rt.global.Defaults()
}

// StrictMode reports whether lock violations are errors.
func (rt *Runtime) StrictMode() bool {
	return rt.global.StrictMode()
}

// Init locks the global configuration; see Global.Init.
func (rt *Runtime) Init(snapshot *Snapshot) error {
	reinit, err := rt.global.initialize(snapshot)
	if err != nil {
		rt.logger.Error("jsconfig: init called twice", Fields{"strict": true})
		return err
	}
	if reinit {
		rt.logger.Warn("jsconfig: init called twice, replacing configuration", Fields{"strict": false})
	} else {
		rt.logger.Info("jsconfig: configuration initialized", Fields{"strict": rt.StrictMode()})
	}
	rt.emit(context.Background(), activity.BuildInitializedEvent(rt.eventInput("Init", map[string]any{"reinit": reinit})))
	return nil
}

// AssertNotInit returns a copy of the global snapshot if direct mutation is
// allowed.
func (rt *Runtime) AssertNotInit() (*Snapshot, error) {
	return rt.global.AssertNotInit()
}

// Mutate changes the global configuration outside of any scope. After Init it
// fails with *ConfigurationLockedError in strict mode.
func (rt *Runtime) Mutate(op string, fn func(*Snapshot)) error {
	tolerated, err := rt.global.mutate(op, fn)
	if err != nil {
		rt.logger.Warn("jsconfig: mutation rejected, configuration locked", Fields{"op": op})
		return err
	}
	if tolerated {
		rt.logger.Warn("jsconfig: mutating locked configuration", Fields{"op": op})
	}
	rt.emit(context.Background(), activity.BuildMutatedEvent(rt.eventInput(op, nil)))
	return nil
}

// Set applies overrides to the global configuration through Mutate.
func (rt *Runtime) Set(overrides ...Override) error {
	return rt.Mutate("Set", func(s *Snapshot) {
		applyOverrides(s, overrides)
	})
}

// UnsafeOverride replaces the global configuration regardless of the lock.
// Only call it while the process is bootstrapping.
func (rt *Runtime) UnsafeOverride(snapshot *Snapshot) {
	rt.global.UnsafeOverride(snapshot)
	rt.logger.Warn("jsconfig: global configuration overridden", Fields{"locked": rt.global.Locked()})
	rt.emit(context.Background(), activity.BuildOverriddenEvent(rt.eventInput("UnsafeOverride", nil)))
}

// Reset unlocks and restores the defaults. Test harnesses only.
func (rt *Runtime) Reset() {
	rt.global.Reset()
	rt.logger.Debug("jsconfig: global configuration reset", nil)
	rt.emit(context.Background(), activity.BuildResetEvent(rt.eventInput("Reset", nil)))
}

// SetStrictMode toggles strict mode; see Global.SetStrictMode.
func (rt *Runtime) SetStrictMode(on bool) {
	rt.global.SetStrictMode(on)
	rt.logger.Info("jsconfig: strict mode changed", Fields{"strict": on})
	rt.emit(context.Background(), activity.BuildStrictModeEvent(rt.eventInput("SetStrictMode", nil)))
}

// Current returns the effective configuration for the flow carried by ctx.
// The result is shared and must not be modified.
func (rt *Runtime) Current(ctx context.Context) *Snapshot {
	return rt.storage.head(ctx).current(rt.global)
}

// BeginScope makes a copy of the current configuration with overrides applied
// effective until the guard is closed. Options that are not overridden keep
// the value of the enclosing scope. Code inside the scope must use the
// returned context.
func (rt *Runtime) BeginScope(ctx context.Context, overrides ...Override) (context.Context, *Guard) {
	return rt.BeginScopeWith(ctx, "", overrides...)
}

// BeginScopeWith is BeginScope with a label reported in traces and errors.
func (rt *Runtime) BeginScopeWith(ctx context.Context, label string, overrides ...Override) (context.Context, *Guard) {
	parent := rt.storage.head(ctx).active()
	snapshot := applyOverrides(Copy(parent.current(rt.global)), overrides)
	f := newFrame(parent, snapshot, label)
	if parent != nil {
		parent.attach(f)
	}
	ctx = rt.storage.push(ctx, f)
	return ctx, &Guard{rt: rt, frame: f}
}

func (rt *Runtime) closeScope(g *Guard) error {
	f := g.frame
	if !rt.storage.owns(f) {
		return rt.misuse(g, "closed outside the goroutine that opened it")
	}
	if f.children.Load() > 0 {
		return rt.misuse(g, "closed out of order")
	}
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	if f.parent != nil {
		f.parent.detach(f)
	}
	rt.storage.pop(f)
	return nil
}

func (rt *Runtime) misuse(g *Guard, reason string) error {
	f := g.frame
	err := &ScopeMisuseError{Guard: f.id, Label: f.label, Reason: reason}
	if f.children.Load() > 0 {
		if top := f.innermost(); top != f {
			err.Top = top.id
			err.TopLabel = top.label
		}
	}
	rt.logger.Error("jsconfig: scope misuse", Fields{
		"guard":   f.id.String(),
		"label":   f.label,
		"reason":  reason,
		"storage": rt.storage.Name(),
	})
	input := rt.eventInput("Close", nil)
	input.GuardID = f.id.String()
	input.GuardLabel = f.label
	input.Reason = reason
	rt.emit(context.Background(), activity.BuildScopeMisuseEvent(input))
	return err
}

// Fork returns a context for a child flow that is detached from the scopes
// of ctx: the child reads the configuration ctx had when forked, and the
// parent's guards can be closed while the child still has scopes open. Under
// GoroutineStorage ctx is returned as is.
func (rt *Runtime) Fork(ctx context.Context) context.Context {
	var base *Snapshot
	if f := rt.storage.head(ctx).active(); f != nil {
		base = f.snapshot
	}
	return rt.storage.fork(ctx, base)
}

func (rt *Runtime) eventInput(op string, metadata map[string]any) activity.ConfigEventInput {
	input := activity.ConfigEventInput{
		ActorID:  rt.actorID,
		Op:       op,
		Strict:   rt.global.StrictMode(),
		Locked:   rt.global.Locked(),
		Metadata: metadata,
	}
	if rt.emitter.Enabled() {
		input.Values = rt.global.Effective().Values()
	}
	return input
}

func (rt *Runtime) emit(ctx context.Context, event activity.Event) {
	if !rt.emitter.Enabled() {
		return
	}
	if err := rt.emitter.Emit(ctx, event); err != nil {
		rt.logger.Warn("jsconfig: activity hook failed", Fields{"verb": event.Verb, "error": err.Error()})
	}
}
