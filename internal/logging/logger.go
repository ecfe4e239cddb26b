// Package logging provides structured logging for the Research Study Chat Console.
// It implements a centralized logging strategy with configurable log levels and
// output formats. Diagnostics never reach the participant-facing transcript; they
// go to the configured sink only.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel represents the severity of log messages
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger provides structured logging with component context
type Logger struct {
	logger    *slog.Logger
	level     LogLevel
	component string
}

// Config represents logging configuration
type Config struct {
	Level     LogLevel
	Format    string // "json" or "text"
	Output    string // "stdout", "stderr", or file path
	Component string
}

// DefaultConfig returns a sensible default logging configuration.
// Logs default to stderr so they never interleave with the TUI on stdout.
func DefaultConfig() Config {
	return Config{
		Level:     InfoLevel,
		Format:    "text",
		Output:    "stderr",
		Component: "console",
	}
}

// NewLogger creates a new logger with the specified configuration
func NewLogger(config Config) (*Logger, error) {
	var output *os.File
	switch config.Output {
	case "stderr", "":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", config.Output, err)
		}
		output = file
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel(config.Level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Participant identifiers are pseudonymous but still study data;
			// keep tokens and survey response ids out of the logs.
			key := strings.ToLower(a.Key)
			if key == "token" || strings.Contains(key, "qr_") || strings.Contains(key, "password") {
				return slog.String(a.Key, "[REDACTED]")
			}
			return a
		},
	}

	var handler slog.Handler
	switch config.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{
		logger:    slog.New(handler),
		level:     config.Level,
		component: config.Component,
	}, nil
}

// slogLevel converts our LogLevel to slog.Level
func slogLevel(level LogLevel) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent creates a new logger for a specific component
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		logger:    l.logger.With(slog.String("component", component)),
		level:     l.level,
		component: component,
	}
}

// WithField adds a field to the logger context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		logger:    l.logger.With(slog.Any(key, value)),
		level:     l.level,
		component: l.component,
	}
}

// Debug logs a debug level message
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level <= DebugLevel {
		l.logger.Debug(msg, args...)
	}
}

// Info logs an info level message
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level <= InfoLevel {
		l.logger.Info(msg, args...)
	}
}

// Warn logs a warning level message
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level <= WarnLevel {
		l.logger.Warn(msg, args...)
	}
}

// Error logs an error level message
func (l *Logger) Error(msg string, args ...interface{}) {
	if l.level <= ErrorLevel {
		l.logger.Error(msg, args...)
	}
}

// LogSessionStart logs a session-start attempt for one participant
func (l *Logger) LogSessionStart(host string, participantID string, experimentID string) {
	l.Info("Starting chat session",
		slog.String("host", host),
		slog.String("pid", participantID),
		slog.String("experiment_id", experimentID))
}

// LogSessionReady logs successful session establishment
func (l *Logger) LogSessionReady(chatSessionID string, duration time.Duration) {
	l.Info("Chat session ready",
		slog.String("chat_session_id", chatSessionID),
		slog.Duration("start_duration", duration))
}

// LogSessionFailure logs session-start failure with its root cause
func (l *Logger) LogSessionFailure(host string, err error, duration time.Duration) {
	l.Error("Chat session start failed",
		slog.String("host", host),
		slog.String("error", err.Error()),
		slog.Duration("attempt_duration", duration))
}

// LogExchange logs the outcome of one message exchange
func (l *Logger) LogExchange(turn int, success bool, duration time.Duration, err error) {
	if success {
		l.Debug("Exchange completed",
			slog.Int("turn", turn),
			slog.Duration("duration", duration))
		return
	}
	l.Error("Exchange failed",
		slog.Int("turn", turn),
		slog.Duration("duration", duration),
		slog.String("error", err.Error()))
}

// LogHTTPRequest logs HTTP request details (without message content)
func (l *Logger) LogHTTPRequest(method string, url string, statusCode int, duration time.Duration) {
	l.Debug("HTTP request completed",
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status_code", statusCode),
		slog.Duration("duration", duration))
}

// LogConfigLoad logs configuration loading operations
func (l *Logger) LogConfigLoad(configPath string, profileName string) {
	l.Debug("Loading configuration",
		slog.String("config_path", configPath),
		slog.String("profile", profileName))
}

// Global logger instance
var globalLogger *Logger

// InitGlobalLogger initializes the global logger with the specified configuration
func InitGlobalLogger(config Config) error {
	logger, err := NewLogger(config)
	if err != nil {
		return fmt.Errorf("failed to initialize global logger: %w", err)
	}
	globalLogger = logger
	return nil
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		// Fallback to default configuration if not initialized
		globalLogger, _ = NewLogger(DefaultConfig())
	}
	return globalLogger
}

// Component-specific logger creators
func GetProtocolLogger() *Logger {
	return GetGlobalLogger().WithComponent("protocol")
}

func GetSessionLogger() *Logger {
	return GetGlobalLogger().WithComponent("session")
}

func GetExchangeLogger() *Logger {
	return GetGlobalLogger().WithComponent("exchange")
}

func GetConfigLogger() *Logger {
	return GetGlobalLogger().WithComponent("config")
}

func GetUILogger() *Logger {
	return GetGlobalLogger().WithComponent("ui")
}
