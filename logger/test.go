package logger

import "sync"

type TestLogEntry struct {
	Severity  string
	Message   string
	Arguments []interface{}
}

// TestLogger is a Logger that records entries for assertions in tests.
// Derived loggers from With/WithPrefix share the root's entry sink, so
// Entries on any of them sees everything logged through the family.
type TestLogger struct {
	sink     *testLogSink
	metadata map[string]interface{}
}

type testLogSink struct {
	mu      sync.Mutex
	entries []TestLogEntry
}

var _ Logger = (*TestLogger)(nil)

func NewTestLogger() *TestLogger {
	return &TestLogger{sink: &testLogSink{}}
}

func (t *TestLogger) With(metadata map[string]interface{}) Logger {
	return &TestLogger{sink: t.sink, metadata: mergeMetadata(t.metadata, metadata)}
}

func (t *TestLogger) WithPrefix(prefix string) Logger {
	return t
}

func (t *TestLogger) IsLevelEnabled(level LogLevel) bool {
	return true
}

// Entries returns a copy of everything logged so far, including entries
// written through derived loggers.
func (t *TestLogger) Entries() []TestLogEntry {
	t.sink.mu.Lock()
	defer t.sink.mu.Unlock()
	out := make([]TestLogEntry, len(t.sink.entries))
	copy(out, t.sink.entries)
	return out
}

func (t *TestLogger) log(severity, msg string, args ...interface{}) {
	t.sink.mu.Lock()
	t.sink.entries = append(t.sink.entries, TestLogEntry{severity, msg, args})
	t.sink.mu.Unlock()
}

func (t *TestLogger) Trace(msg string, args ...interface{}) { t.log("TRACE", msg, args...) }
func (t *TestLogger) Debug(msg string, args ...interface{}) { t.log("DEBUG", msg, args...) }
func (t *TestLogger) Info(msg string, args ...interface{})  { t.log("INFO", msg, args...) }
func (t *TestLogger) Warn(msg string, args ...interface{})  { t.log("WARN", msg, args...) }
func (t *TestLogger) Error(msg string, args ...interface{}) { t.log("ERROR", msg, args...) }
