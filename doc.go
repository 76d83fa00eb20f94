// Package jsconfig governs which serializer options are visible at any point
// of a program.
//
// A process has one global configuration. It holds the defaults until Init
// locks it; after that, direct mutation is rejected in strict mode and only
// Reset (for tests) or UnsafeOverride (for bootstrap) replace it.
//
// Code that needs different options for a call or a request opens a scope:
//
//	ctx, guard := jsconfig.BeginScope(ctx, jsconfig.WithThrowOnError(true))
//	defer guard.Close()
//	opts := jsconfig.Current(ctx)
//
// Scopes nest in LIFO order and inherit every option they do not override
// from the enclosing scope. Closing a guard while a scope opened inside it is
// still open returns *ScopeMisuseError and leaves both scopes open.
//
// Where the scopes live is decided once per Runtime by its Storage.
// FlowStorage chains them through context.Context values, so a context can be
// handed to any number of goroutines and each sees only the scopes of the
// context it was given. GoroutineStorage binds them to the goroutine that
// opened them.
//
// Strict mode comes from the platform package (JSCONFIG_STRICT_MODE) unless
// WithStrictMode overrides it.
package jsconfig
