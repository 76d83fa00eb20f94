// Package zap adapts a *zap.Logger to jsconfig.Logger.
package zap

import (
	"sort"

	jsconfig "github.com/goliatone/go-jsconfig"
	"go.uber.org/zap"
)

// Logger writes lifecycle logs through zap. Fields are emitted sorted by key.
type Logger struct{ L *zap.Logger }

// New wraps l, falling back to zap.NewNop when l is nil.
func New(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return Logger{L: l.Named("jsconfig")}
}

func (z Logger) Debug(msg string, f jsconfig.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f jsconfig.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f jsconfig.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f jsconfig.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f jsconfig.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
