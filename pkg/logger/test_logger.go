package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger is a Logger implementation for tests that captures messages
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	fields   map[string]interface{}
	zerolog  *zerolog.Logger
}

// LogMessage represents a captured log message
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// NewTestLogger creates a new test logger
func NewTestLogger() *TestLogger {
	nop := zerolog.Nop()
	return &TestLogger{
		fields:  make(map[string]interface{}),
		zerolog: &nop,
	}
}

func (l *TestLogger) log(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	l.messages = append(l.messages, LogMessage{Level: level, Message: msg, Fields: merged})
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, nil) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields)
}
func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}
func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}
func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields)
}

// WithField returns a logger with one additional field
func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a logger with additional fields that shares the
// parent's message buffer, so tests can inspect everything in one place
func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	child := &TestLogger{
		fields:  make(map[string]interface{}, len(l.fields)+len(fields)),
		zerolog: l.zerolog,
	}
	for k, v := range l.fields {
		child.fields[k] = v
	}
	for k, v := range fields {
		child.fields[k] = v
	}
	// Share the parent's buffer through a forwarding wrapper.
	return &forwardingLogger{target: l, wrapped: child}
}

// WithError returns a logger with an error field
func (l *TestLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

// GetZerolog returns a no-op zerolog instance
func (l *TestLogger) GetZerolog() *zerolog.Logger {
	return l.zerolog
}

// Messages returns a copy of the captured messages
func (l *TestLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// MessagesAt returns the captured messages with the given level
func (l *TestLogger) MessagesAt(level string) []LogMessage {
	var out []LogMessage
	for _, m := range l.Messages() {
		if m.Level == level {
			out = append(out, m)
		}
	}
	return out
}

// Reset clears all captured messages
func (l *TestLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = nil
}

// forwardingLogger records into the root TestLogger while carrying the
// child's accumulated fields
type forwardingLogger struct {
	target  *TestLogger
	wrapped *TestLogger
}

func (f *forwardingLogger) emit(level, msg string, fields map[string]interface{}) {
	merged := make(map[string]interface{}, len(f.wrapped.fields)+len(fields))
	for k, v := range f.wrapped.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	f.target.log(level, msg, merged)
}

func (f *forwardingLogger) Debug(msg string) { f.emit("DEBUG", msg, nil) }
func (f *forwardingLogger) Info(msg string)  { f.emit("INFO", msg, nil) }
func (f *forwardingLogger) Warn(msg string)  { f.emit("WARN", msg, nil) }
func (f *forwardingLogger) Error(msg string) { f.emit("ERROR", msg, nil) }
func (f *forwardingLogger) Fatal(msg string) { f.emit("FATAL", msg, nil) }

func (f *forwardingLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	f.emit("DEBUG", msg, fields)
}
func (f *forwardingLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	f.emit("INFO", msg, fields)
}
func (f *forwardingLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	f.emit("WARN", msg, fields)
}
func (f *forwardingLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	f.emit("ERROR", msg, fields)
}

func (f *forwardingLogger) WithField(key string, value interface{}) Logger {
	return f.WithFields(map[string]interface{}{key: value})
}

func (f *forwardingLogger) WithFields(fields map[string]interface{}) Logger {
	child := &TestLogger{
		fields:  make(map[string]interface{}, len(f.wrapped.fields)+len(fields)),
		zerolog: f.wrapped.zerolog,
	}
	for k, v := range f.wrapped.fields {
		child.fields[k] = v
	}
	for k, v := range fields {
		child.fields[k] = v
	}
	return &forwardingLogger{target: f.target, wrapped: child}
}

func (f *forwardingLogger) WithError(err error) Logger {
	if err == nil {
		return f
	}
	return f.WithField("error", err.Error())
}

func (f *forwardingLogger) GetZerolog() *zerolog.Logger {
	return f.wrapped.zerolog
}
