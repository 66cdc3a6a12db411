// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     logging
// Description: Factory functions for creating component loggers
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	defaultsMu sync.RWMutex
	defaults   = LoggerConfig{Level: "info", Format: "text"}
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Component name, logged as field "logger"
	ServiceName string

	// Log level (debug, info, warn, error)
	Level string

	// Output format: "json" or "text" (default: text)
	Format string

	// Output defaults to stderr so command output on stdout stays clean
	Output io.Writer

	// Additional outputs besides Output
	AdditionalOutputs []io.Writer
}

// DefaultLoggerConfig returns the process-wide configuration for a component
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	defaultsMu.RLock()
	cfg := defaults
	defaultsMu.RUnlock()
	cfg.ServiceName = serviceName
	return cfg
}

// Configure sets the process-wide defaults used by New. Loggers created
// earlier keep their settings.
func Configure(level, format string, outputs ...io.Writer) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	if level != "" {
		defaults.Level = level
	}
	if format != "" {
		defaults.Format = format
	}
	defaults.AdditionalOutputs = outputs
}

// NewLogger creates a logrus logger from cfg
func NewLogger(cfg LoggerConfig) *logrus.Logger {
	var output io.Writer = os.Stderr
	if cfg.Output != nil {
		output = cfg.Output
	}
	if len(cfg.AdditionalOutputs) > 0 {
		output = io.MultiWriter(append([]io.Writer{output}, cfg.AdditionalOutputs...)...)
	}

	logger := logrus.New()
	logger.SetOutput(output)
	logger.SetLevel(ParseLevel(cfg.Level).logrus())
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// Logger is a named logger taking alternating key/value pairs
type Logger struct {
	entry *logrus.Entry
	name  string
}

// New creates a logger for a component with the process-wide defaults
func New(name string) *Logger {
	return NewWithConfig(DefaultLoggerConfig(name))
}

// NewWithConfig creates a named logger from an explicit configuration
func NewWithConfig(cfg LoggerConfig) *Logger {
	return &Logger{
		entry: NewLogger(cfg).WithField("logger", cfg.ServiceName),
		name:  cfg.ServiceName,
	}
}

// Name returns the component name
func (l *Logger) Name() string {
	return l.name
}

// WithLevel returns a copy of the logger with the specified level
func (l *Logger) WithLevel(level Level) *Logger {
	base := l.entry.Logger
	clone := logrus.New()
	clone.SetOutput(base.Out)
	clone.SetFormatter(base.Formatter)
	clone.SetLevel(level.logrus())
	return &Logger{
		entry: clone.WithFields(l.entry.Data),
		name:  l.name,
	}
}

// With returns a logger that adds the key/value pairs to every entry
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(toFields(keysAndValues...)), name: l.name}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues...)).Debug(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues...)).Info(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues...)).Warn(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(toFields(keysAndValues...)).Error(msg)
}

// toFields converts key-value pairs to logrus.Fields; a trailing key without
// value and non-string keys are dropped
func toFields(keysAndValues ...interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
