// Package logging provides the leveled logger used across the agent.
package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level represents log level
type Level int

const (
	// LevelDebug is for debug messages
	LevelDebug Level = iota
	// LevelInfo is for informational messages
	LevelInfo
	// LevelWarn is for warning messages
	LevelWarn
	// LevelError is for error messages
	LevelError
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is the interface for logging
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	WithComponent(component string) Logger
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// SimpleLogger is a basic logger implementation writing to stderr
type SimpleLogger struct {
	component string
	level     Level
	logger    *log.Logger
	useColors bool
}

// NewSimpleLogger creates a new SimpleLogger. Colors apply only when
// requested and stderr is a terminal.
func NewSimpleLogger(component string, level Level, useColors bool) *SimpleLogger {
	return &SimpleLogger{
		component: component,
		level:     level,
		logger:    log.New(os.Stderr, "", log.LstdFlags),
		useColors: useColors && checkTTY(),
	}
}

// checkTTY checks if stderr is a terminal
func checkTTY() bool {
	fileInfo, _ := os.Stderr.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// formatMessage formats a log message with component and level
func (l *SimpleLogger) formatMessage(level Level, msg string, args ...interface{}) string {
	message := msg
	if len(args) > 0 {
		// Format key-value pairs
		var pairs []string
		for i := 0; i < len(args); i += 2 {
			if i+1 < len(args) {
				pairs = append(pairs, fmt.Sprintf("%v=%v", args[i], args[i+1]))
			}
		}
		if len(pairs) > 0 {
			message = fmt.Sprintf("%s %s", msg, strings.Join(pairs, " "))
		}
	}

	componentPart := fmt.Sprintf("[%s]", l.component)
	levelPart := level.String()
	if l.useColors {
		componentPart = colorCyan + componentPart + colorReset
		levelPart = l.colorizeLevel(level, levelPart)
	}

	return fmt.Sprintf("%s %s: %s", componentPart, levelPart, message)
}

// colorizeLevel applies color to log level
func (l *SimpleLogger) colorizeLevel(level Level, text string) string {
	switch level {
	case LevelDebug:
		return colorGray + text + colorReset
	case LevelInfo:
		return colorGreen + text + colorReset
	case LevelWarn:
		return colorYellow + text + colorReset
	case LevelError:
		return colorRed + text + colorReset
	default:
		return text
	}
}

func (l *SimpleLogger) log(level Level, msg string, args ...interface{}) {
	if level < l.level {
		return
	}
	l.logger.Println(l.formatMessage(level, msg, args...))
}

// Debug logs a debug message
func (l *SimpleLogger) Debug(msg string, args ...interface{}) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an informational message
func (l *SimpleLogger) Info(msg string, args ...interface{}) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message
func (l *SimpleLogger) Warn(msg string, args ...interface{}) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message
func (l *SimpleLogger) Error(msg string, args ...interface{}) {
	l.log(LevelError, msg, args...)
}

// WithComponent creates a new logger with a different component name
func (l *SimpleLogger) WithComponent(component string) Logger {
	return &SimpleLogger{
		component: component,
		level:     l.level,
		logger:    l.logger,
		useColors: l.useColors,
	}
}
