// Package logrus adapts a logrus entry to jsconfig.Logger.
package logrus

import (
	jsconfig "github.com/goliatone/go-jsconfig"
	"github.com/sirupsen/logrus"
)

// Logger writes lifecycle logs through logrus.
type Logger struct{ E *logrus.Entry }

// New wraps l with a component=jsconfig field. A nil l uses the standard
// logger.
func New(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return Logger{E: l.WithField("component", "jsconfig")}
}

func (l Logger) Debug(msg string, f jsconfig.Fields) { l.E.WithFields(logrus.Fields(f)).Debug(msg) }
func (l Logger) Info(msg string, f jsconfig.Fields)  { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l Logger) Warn(msg string, f jsconfig.Fields)  { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l Logger) Error(msg string, f jsconfig.Fields) { l.E.WithFields(logrus.Fields(f)).Error(msg) }
