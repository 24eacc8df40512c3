package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Level is a thin enum for user friendly level configuration decoupled from slog.
type Level int

const (
	// LevelDebug is the debug logging level.
	LevelDebug Level = iota
	// LevelInfo is the informational logging level.
	LevelInfo
	// LevelWarn is the warning logging level.
	LevelWarn
	// LevelError is the error logging level.
	LevelError
)

// String returns the string representation of the log level.
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

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "warn", "WARN":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger defines the minimal logging interface used throughout the module.
// Constructors accept a Logger and substitute NoOpLogger for nil.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NoOpLogger discards all log messages. Useful for tests or when logging is
// disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// Config configures construction of a CollabLogger.
type Config struct {
	Level     Level
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Component string
}

// DefaultConfig returns a baseline text info level configuration.
func DefaultConfig() *Config {
	return &Config{Level: LevelInfo, Format: "text", Output: os.Stderr}
}

// CollabLogger wraps slog.Logger adding contextual cloning helpers and domain
// convenience methods. It is cheap to copy via the With* methods.
type CollabLogger struct {
	logger    *slog.Logger
	level     Level
	component string
}

// NewLogger builds a CollabLogger from a config (or defaults if nil).
func NewLogger(cfg *Config) *CollabLogger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	return &CollabLogger{logger: slog.New(handler), level: cfg.Level, component: cfg.Component}
}

func slogLevel(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent sets the logical component (channel, orchestrator, provider, ...).
func (l *CollabLogger) WithComponent(c string) *CollabLogger {
	nl := *l
	nl.component = c
	return &nl
}

func (l *CollabLogger) log(level slog.Level, allowed bool, msg string, args ...any) {
	if !allowed {
		return
	}
	if l.component != "" {
		args = append(args, "component", l.component)
	}
	l.logger.Log(context.Background(), level, msg, args...)
}

// Debug logs at debug level.
func (l *CollabLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, l.level <= LevelDebug, msg, args...)
}

// Info logs at info level.
func (l *CollabLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, l.level <= LevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *CollabLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, l.level <= LevelWarn, msg, args...)
}

// Error logs at error level.
func (l *CollabLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, l.level <= LevelError, msg, args...)
}

// LogToolCall records execution details for a tool invocation.
func (l *CollabLogger) LogToolCall(provider, tool string, dur time.Duration, err error) {
	if err != nil {
		l.Error("tool call failed", "provider", provider, "tool", tool, "duration", dur, "error", err)
		return
	}
	l.Info("tool call completed", "provider", provider, "tool", tool, "duration", dur)
}

// LogTurn records the outcome of an orchestrator turn.
func (l *CollabLogger) LogTurn(responders int, dur time.Duration) {
	l.Info("turn completed", "responses", responders, "duration", dur)
}

// LogBreakerTransition records a circuit breaker state change.
func (l *CollabLogger) LogBreakerTransition(name, from, to string) {
	l.Warn("breaker state change", "breaker", name, "from", from, "to", to)
}
