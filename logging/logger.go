package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel is a thin enum for user friendly level configuration decoupled
// from the concrete backend.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a case-insensitive level name to a LogLevel, defaulting to
// info for unknown input.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger defines the minimal structured logging interface. Arguments after
// the message are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// contextual is implemented by adapters able to derive child loggers.
type contextual interface {
	With(args ...any) Logger
}

// With returns a child logger carrying args on every entry. Loggers that
// cannot derive children are returned unchanged.
func With(l Logger, args ...any) Logger {
	if c, ok := l.(contextual); ok {
		return c.With(args...)
	}
	return l
}

// Component tags every entry of the returned logger with component=name.
func Component(l Logger, name string) Logger {
	return With(l, "component", name)
}

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

// With derives a child logger.
func (s *SlogAdapter) With(args ...any) Logger { return &SlogAdapter{Logger: s.Logger.With(args...)} }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// Config configures construction of a Logger.
type Config struct {
	Backend   string    // zerolog (default) or slog
	Level     string    // debug, info, warn, error
	Format    string    // json or console / text
	Output    io.Writer // defaults to os.Stderr
	Redaction bool      // mask credentials before writing
}

// DefaultConfig returns the baseline configuration: zerolog, info level,
// console output with redaction enabled.
func DefaultConfig() Config {
	return Config{Backend: "zerolog", Level: "info", Format: "console", Redaction: true}
}

// New builds a Logger from cfg.
func New(cfg Config) (Logger, error) {
	var out io.Writer = os.Stderr
	if cfg.Output != nil {
		out = cfg.Output
	}

	if cfg.Redaction {
		out = NewRedactor().Wrap(out)
	}

	level := ParseLevel(cfg.Level)
	format := strings.ToLower(cfg.Format)

	switch strings.ToLower(cfg.Backend) {
	case "", "zerolog":
		zl, err := zerolog.ParseLevel(strings.ToLower(level.String()))
		if err != nil {
			zl = zerolog.InfoLevel
		}

		w := out
		if format == "console" || format == "text" {
			w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: cfg.Output != nil}
		}

		return NewZerologAdapter(zerolog.New(w).Level(zl).With().Timestamp().Logger()), nil
	case "slog":
		opts := &slog.HandlerOptions{Level: slogLevel(level)}

		var handler slog.Handler
		if format == "json" {
			handler = slog.NewJSONHandler(out, opts)
		} else {
			handler = slog.NewTextHandler(out, opts)
		}

		return NewSlogAdapter(slog.New(handler)), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", cfg.Backend)
	}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
