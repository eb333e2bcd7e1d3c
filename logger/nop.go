package logger

// NopLogger discards every log record. Useful as a default in tests and
// for callers that want logging disabled entirely.
type NopLogger struct{}

var _ Logger = (*NopLogger)(nil)

// NewNop creates a Logger that discards all records.
func NewNop() *NopLogger {
	return &NopLogger{}
}

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}
func (*NopLogger) Fatal(string, ...any) {}

func (l *NopLogger) With(...any) Logger { return l }

func (*NopLogger) Level() Level   { return FatalLevel }
func (*NopLogger) SetLevel(Level) {}
