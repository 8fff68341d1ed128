package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger is a Logger implementation that captures log entries in memory
// so tests can assert on what was logged.
type TestLogger struct {
	mu      sync.Mutex
	entries []TestLogEntry
	fields  map[string]interface{}
	nop     zerolog.Logger
}

// TestLogEntry is a single captured log entry
type TestLogEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	return &TestLogger{
		fields: make(map[string]interface{}),
		nop:    zerolog.Nop(),
	}
}

func (t *TestLogger) record(level, msg string, extra map[string]interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fields := make(map[string]interface{}, len(t.fields)+len(extra))
	for k, v := range t.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}

	t.entries = append(t.entries, TestLogEntry{Level: level, Message: msg, Fields: fields})
}

func (t *TestLogger) Debug(msg string) { t.record("debug", msg, nil) }
func (t *TestLogger) Info(msg string)  { t.record("info", msg, nil) }
func (t *TestLogger) Warn(msg string)  { t.record("warn", msg, nil) }
func (t *TestLogger) Error(msg string) { t.record("error", msg, nil) }
func (t *TestLogger) Fatal(msg string) { t.record("fatal", msg, nil) }

func (t *TestLogger) WithField(key string, value interface{}) Logger {
	return t.WithFields(map[string]interface{}{key: value})
}

func (t *TestLogger) WithFields(fields map[string]interface{}) Logger {
	t.mu.Lock()
	defer t.mu.Unlock()

	child := &TestLogger{fields: make(map[string]interface{}, len(t.fields)+len(fields)), nop: t.nop}
	for k, v := range t.fields {
		child.fields[k] = v
	}
	for k, v := range fields {
		child.fields[k] = v
	}
	// Share the entry slice with the parent so assertions see child output.
	child.entries = t.entries
	return &sharedTestLogger{root: t, fields: child.fields}
}

func (t *TestLogger) WithError(err error) Logger {
	if err == nil {
		return t
	}
	return t.WithField("error", err.Error())
}

func (t *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	t.record("debug", msg, fields)
}

func (t *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	t.record("info", msg, fields)
}

func (t *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	t.record("warn", msg, fields)
}

func (t *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	t.record("error", msg, fields)
}

func (t *TestLogger) GetZerolog() *zerolog.Logger { return &t.nop }

// Entries returns a copy of all captured entries
func (t *TestLogger) Entries() []TestLogEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]TestLogEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// HasEntry reports whether an entry with the given level and message was captured
func (t *TestLogger) HasEntry(level, msg string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range t.entries {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}

// CountLevel returns the number of captured entries at the given level
func (t *TestLogger) CountLevel(level string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, e := range t.entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Reset discards all captured entries
func (t *TestLogger) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}

// sharedTestLogger is a child view of a TestLogger carrying bound fields;
// entries are recorded on the root so tests keep a single view.
type sharedTestLogger struct {
	root   *TestLogger
	fields map[string]interface{}
}

func (s *sharedTestLogger) record(level, msg string, extra map[string]interface{}) {
	merged := make(map[string]interface{}, len(s.fields)+len(extra))
	for k, v := range s.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	s.root.record(level, msg, merged)
}

func (s *sharedTestLogger) Debug(msg string) { s.record("debug", msg, nil) }
func (s *sharedTestLogger) Info(msg string)  { s.record("info", msg, nil) }
func (s *sharedTestLogger) Warn(msg string)  { s.record("warn", msg, nil) }
func (s *sharedTestLogger) Error(msg string) { s.record("error", msg, nil) }
func (s *sharedTestLogger) Fatal(msg string) { s.record("fatal", msg, nil) }

func (s *sharedTestLogger) WithField(key string, value interface{}) Logger {
	return s.WithFields(map[string]interface{}{key: value})
}

func (s *sharedTestLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(s.fields)+len(fields))
	for k, v := range s.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &sharedTestLogger{root: s.root, fields: merged}
}

func (s *sharedTestLogger) WithError(err error) Logger {
	if err == nil {
		return s
	}
	return s.WithField("error", err.Error())
}

func (s *sharedTestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	s.record("debug", msg, fields)
}

func (s *sharedTestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	s.record("info", msg, fields)
}

func (s *sharedTestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	s.record("warn", msg, fields)
}

func (s *sharedTestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	s.record("error", msg, fields)
}

func (s *sharedTestLogger) GetZerolog() *zerolog.Logger { return &s.root.nop }
