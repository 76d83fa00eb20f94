package jsconfig

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// Logger is the leveled logger used for lifecycle diagnostics. Adapters for
// zap and logrus live under log/.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

// Level names a log severity for LoggerFunc.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(level Level, msg string, f Fields)

func (fn LoggerFunc) Debug(msg string, f Fields) { fn.log(LevelDebug, msg, f) }
func (fn LoggerFunc) Info(msg string, f Fields)  { fn.log(LevelInfo, msg, f) }
func (fn LoggerFunc) Warn(msg string, f Fields)  { fn.log(LevelWarn, msg, f) }
func (fn LoggerFunc) Error(msg string, f Fields) { fn.log(LevelError, msg, f) }

func (fn LoggerFunc) log(level Level, msg string, f Fields) {
	if fn != nil {
		fn(level, msg, f)
	}
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}
