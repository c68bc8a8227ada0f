package logger

import (
	"sync"
)

const (
	serviceName    = "stripeconn"
	serviceVersion = "1.0.0"
)

var (
	globalLogger *SystemLogger
	mu           sync.RWMutex
	once         sync.Once
)

// Options configures the global logger
type Options struct {
	Environment string
	Level       string
	// Sink additionally receives every entry when non-nil
	Sink Sink
}

// InitGlobalLogger initializes the global system logger once
func InitGlobalLogger(opts Options) {
	once.Do(func() {
		minLevel := ParseLevel(opts.Level)
		if opts.Level == "" && opts.Environment == "development" {
			minLevel = LevelDebug
		}

		setGlobal(NewSystemLogger(opts.Sink, SystemLoggerConfig{
			EnableConsole: true,
			EnableSink:    opts.Sink != nil,
			MinLevel:      minLevel,
			Service:       serviceName,
			Version:       serviceVersion,
			Environment:   opts.Environment,
		}))
	})
}

// SetGlobalLogger replaces the global logger
func SetGlobalLogger(l *SystemLogger) {
	setGlobal(l)
}

func setGlobal(l *SystemLogger) {
	mu.Lock()
	defer mu.Unlock()
	globalLogger = l
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *SystemLogger {
	mu.RLock()
	l := globalLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	// Fallback to console-only logger if not initialized
	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		globalLogger = NewSystemLogger(nil, SystemLoggerConfig{
			EnableConsole: true,
			MinLevel:      LevelInfo,
			Service:       serviceName,
			Version:       serviceVersion,
			Environment:   "development",
		})
	}
	return globalLogger
}

// Debug logs a debug message using the global logger
func Debug(message string, ctx ...LogContext) {
	GetGlobalLogger().Debug(message, ctx...)
}

// Info logs an info message using the global logger
func Info(message string, ctx ...LogContext) {
	GetGlobalLogger().Info(message, ctx...)
}

// Warn logs a warning message using the global logger
func Warn(message string, ctx ...LogContext) {
	GetGlobalLogger().Warn(message, ctx...)
}

// Error logs an error message using the global logger
func Error(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().Error(message, err, ctx...)
}

// Fatal logs a fatal message using the global logger and exits
func Fatal(message string, err error, ctx ...LogContext) {
	GetGlobalLogger().Fatal(message, err, ctx...)
}

// WithContext creates a context logger from the global logger
func WithContext(ctx LogContext) *ContextLogger {
	return GetGlobalLogger().WithContext(ctx)
}

// WithProvider creates a context logger with provider
func WithProvider(provider string) *ContextLogger {
	return WithContext(LogContext{Provider: provider})
}
