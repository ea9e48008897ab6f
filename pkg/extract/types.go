package extract

// DebugLogger provides platform-specific diagnostics logging.
type DebugLogger interface {
	Log(format string, args ...interface{})
}

// NoopLogger is a no-op logger.
type NoopLogger struct{}

func (NoopLogger) Log(format string, args ...interface{}) {}
