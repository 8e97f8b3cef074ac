package logging

import "testing"

// TestLogger is a logger for testing that suppresses output unless
// constructed with a testing.T.
type TestLogger struct {
	component string
	t         *testing.T
}

// NewTestLogger creates a new test logger that suppresses output
func NewTestLogger() *TestLogger {
	return &TestLogger{component: "test"}
}

// NewTestLoggerVerbose creates a test logger that outputs to testing.T
func NewTestLoggerVerbose(t *testing.T) *TestLogger {
	return &TestLogger{component: "test", t: t}
}

// Debug logs a debug message
func (l *TestLogger) Debug(msg string, args ...interface{}) {
	if l.t != nil {
		l.t.Logf("[%s] DEBUG: %s %v", l.component, msg, args)
	}
}

// Info logs an informational message
func (l *TestLogger) Info(msg string, args ...interface{}) {
	if l.t != nil {
		l.t.Logf("[%s] INFO: %s %v", l.component, msg, args)
	}
}

// Warn logs a warning message
func (l *TestLogger) Warn(msg string, args ...interface{}) {
	if l.t != nil {
		l.t.Logf("[%s] WARN: %s %v", l.component, msg, args)
	}
}

// Error logs an error message
func (l *TestLogger) Error(msg string, args ...interface{}) {
	if l.t != nil {
		l.t.Logf("[%s] ERROR: %s %v", l.component, msg, args)
	}
}

// WithComponent returns the logger itself; component scoping is not
// meaningful in tests.
func (l *TestLogger) WithComponent(component string) Logger {
	return l
}
