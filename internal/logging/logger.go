// Package logging provides structured logging for the account explorer.
// It supports JSON and text output, leveled filtering and field chaining.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents the severity of a log message
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format represents the output format for logs
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Logger emits structured log entries
type Logger struct {
	level  Level
	format Format
	mu     *sync.Mutex
	output io.Writer
	fields map[string]interface{}
}

type entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// New creates a logger writing to stdout
func New(level Level, format Format) *Logger {
	return &Logger{
		level:  level,
		format: format,
		mu:     &sync.Mutex{},
		output: os.Stdout,
		fields: map[string]interface{}{},
	}
}

// SetOutput redirects log output, mainly for tests
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
}

func (l *Logger) clone() *Logger {
	fields := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	return &Logger{level: l.level, format: l.format, mu: l.mu, output: l.output, fields: fields}
}

// WithField returns a logger that includes key=value on every entry
func (l *Logger) WithField(key string, value interface{}) *Logger {
	out := l.clone()
	out.fields[key] = value
	return out
}

// WithFields returns a logger that includes all given fields on every entry
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	out := l.clone()
	for k, v := range fields {
		out.fields[k] = v
	}
	return out
}

// WithError returns a logger that includes the error on every entry
func (l *Logger) WithError(err error) *Logger {
	return l.WithField("error", err.Error())
}

func (l *Logger) log(level Level, message string) {
	if levelRank[level] < levelRank[l.level] {
		return
	}

	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   message,
	}
	if len(l.fields) > 0 {
		e.Fields = l.fields
	}

	var line string
	if l.format == FormatText {
		line = fmt.Sprintf("[%s] %s: %s", e.Timestamp, e.Level, e.Message)
		if len(e.Fields) > 0 {
			if b, err := json.Marshal(e.Fields); err == nil {
				line += " fields=" + string(b)
			}
		}
	} else {
		b, err := json.Marshal(e)
		if err != nil {
			return
		}
		line = string(b)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.output, line)
}

// Debug logs a debug message
func (l *Logger) Debug(message string) { l.log(LevelDebug, message) }

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(LevelDebug, fmt.Sprintf(format, args...))
}

// Info logs an info message
func (l *Logger) Info(message string) { l.log(LevelInfo, message) }

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn logs a warning message
func (l *Logger) Warn(message string) { l.log(LevelWarn, message) }

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(LevelWarn, fmt.Sprintf(format, args...))
}

// Error logs an error message
func (l *Logger) Error(message string) { l.log(LevelError, message) }

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(LevelError, fmt.Sprintf(format, args...))
}

var (
	globalMu     sync.Mutex
	globalLogger *Logger
)

// SetGlobal installs the process-wide default logger
func SetGlobal(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// Global returns the process-wide default logger
func Global() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = New(LevelInfo, FormatJSON)
	}
	return globalLogger
}

type loggerKey struct{}

// WithLogger attaches a logger to the context
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext retrieves the context logger, falling back to the global one
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return logger
	}
	return Global()
}

// ParseLevel parses a string into a Level, defaulting to info
func ParseLevel(level string) Level {
	switch level {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// ParseFormat parses a string into a Format, defaulting to JSON
func ParseFormat(format string) Format {
	if format == "text" {
		return FormatText
	}
	return FormatJSON
}
