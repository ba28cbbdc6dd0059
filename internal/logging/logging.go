// Package logging provides structured logging for the ingestion core using
// Go's standard library slog package. It supports multiple output formats,
// log levels, and sensitive data redaction.
//
// Usage:
//
//	logger := logging.New(logging.Config{
//	    Level:  slog.LevelInfo,
//	    Format: logging.FormatJSON,
//	})
//
//	logger.Info("ingestion starting", slog.Int("rows", len(rows)))
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// =============================================================================
// Log Format Constants
// =============================================================================

// Format specifies the log output format.
type Format string

const (
	// FormatJSON outputs structured JSON logs, ideal for production and log aggregation.
	FormatJSON Format = "json"

	// FormatText outputs human-readable text logs, ideal for development.
	FormatText Format = "text"
)

// =============================================================================
// Context Keys
// =============================================================================

type contextKey string

const (
	// loggerKey is the context key for storing the logger.
	loggerKey contextKey = "ghgcore_logger"

	// runIDKey is the context key for the per-ingestion run correlation ID.
	runIDKey contextKey = "ghgcore_run_id"
)

// =============================================================================
// Configuration
// =============================================================================

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	// Defaults to slog.LevelInfo if zero.
	Level slog.Level

	// Format specifies the output format (json or text).
	// Defaults to FormatJSON if empty.
	Format Format

	// Output is the destination for log output.
	// Defaults to os.Stdout if nil.
	Output io.Writer

	// AddSource includes source file and line number in log output.
	// Recommended for development, may add overhead in production.
	AddSource bool

	// TimeFormat specifies the time format for text output.
	// Defaults to time.RFC3339 if empty. Ignored for JSON format.
	TimeFormat string

	// AppName is included in every log entry for multi-service environments.
	AppName string

	// Environment is included in every log entry (development, production, etc.).
	Environment string
}

// applyDefaults fills in default values for unset fields.
func (c *Config) applyDefaults() {
	if c.Format == "" {
		c.Format = FormatJSON
	}
	if c.Output == nil {
		c.Output = os.Stdout
	}
	if c.TimeFormat == "" {
		c.TimeFormat = time.RFC3339
	}
	if c.AppName == "" {
		c.AppName = "ghgcore"
	}
}

// =============================================================================
// Logger Construction
// =============================================================================

// New creates a new structured logger with the given configuration.
func New(cfg Config) *slog.Logger {
	cfg.applyDefaults()

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Redact sensitive fields
			if isSensitiveKey(a.Key) {
				return slog.String(a.Key, "[REDACTED]")
			}

			// Format time consistently for text output
			if a.Key == slog.TimeKey && cfg.Format == FormatText {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(a.Key, t.Format(cfg.TimeFormat))
				}
			}

			return a
		},
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatText:
		handler = slog.NewTextHandler(cfg.Output, opts)
	default:
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}

	// Wrap with default attributes
	if cfg.AppName != "" || cfg.Environment != "" {
		attrs := make([]slog.Attr, 0, 2)
		if cfg.AppName != "" {
			attrs = append(attrs, slog.String("app", cfg.AppName))
		}
		if cfg.Environment != "" {
			attrs = append(attrs, slog.String("env", cfg.Environment))
		}
		handler = handler.WithAttrs(attrs)
	}

	return slog.New(handler)
}

// NewFromEnv creates a logger configured from environment variables.
//
// Environment variables:
//   - GHGCORE_LOG_LEVEL: debug, info, warn, error (default: info)
//   - GHGCORE_LOG_FORMAT: json, text (default: json)
//   - GHGCORE_LOG_SOURCE: true, false (default: false)
func NewFromEnv() *slog.Logger {
	return New(Config{
		Level:       parseLogLevel(os.Getenv("GHGCORE_LOG_LEVEL")),
		Format:      parseLogFormat(os.Getenv("GHGCORE_LOG_FORMAT")),
		AddSource:   parseBool(os.Getenv("GHGCORE_LOG_SOURCE")),
		Environment: os.Getenv("GHGCORE_APP_ENV"),
	})
}

// Default returns the default logger for the application.
// This creates a production-ready JSON logger.
func Default() *slog.Logger {
	return New(Config{
		Level:  slog.LevelInfo,
		Format: FormatJSON,
	})
}

// Development returns a development-friendly logger with text output and debug level.
func Development() *slog.Logger {
	return New(Config{
		Level:     slog.LevelDebug,
		Format:    FormatText,
		AddSource: true,
	})
}

// =============================================================================
// Context Integration
// =============================================================================

// NewContext returns a new context with the logger attached.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context.
// Returns the default logger if none is found.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// WithRunID adds a per-ingestion run ID to the context and attaches a logger
// carrying it, so every log line emitted during one Ingest call can be
// correlated without threading an ID through every function signature.
func WithRunID(ctx context.Context, runID string) context.Context {
	ctx = context.WithValue(ctx, runIDKey, runID)

	logger := FromContext(ctx).With(slog.String("run_id", runID))
	return NewContext(ctx, logger)
}

// RunIDFromContext retrieves the run ID from context.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// =============================================================================
// Error Logging Helpers
// =============================================================================

// Error logs an error with stack context.
// It includes the file and line number where the error occurred.
func Error(logger *slog.Logger, msg string, err error, attrs ...slog.Attr) {
	if logger == nil {
		logger = slog.Default()
	}

	// Get caller information
	_, file, line, ok := runtime.Caller(1)
	if ok {
		attrs = append(attrs,
			slog.String("error", err.Error()),
			slog.String("error_file", file),
			slog.Int("error_line", line),
		)
	} else {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}

	logger.Error(msg, args...)
}

// ErrorContext logs an error using the logger from context.
func ErrorContext(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	Error(FromContext(ctx), msg, err, attrs...)
}

// =============================================================================
// Sensitive Data Handling
// =============================================================================

// sensitiveKeys lists field names that should be redacted.
var sensitiveKeys = map[string]bool{
	"password":       true,
	"passwd":         true,
	"secret":         true,
	"token":          true,
	"api_key":        true,
	"apikey":         true,
	"authorization":  true,
	"auth":           true,
	"credential":     true,
	"private_key":    true,
	"access_token":   true,
	"refresh_token":  true,
	"jwt":            true,
	"session":        true,
	"cookie":         true,
	"credit_card":    true,
	"card_number":    true,
	"cvv":            true,
	"ssn":            true,
	"stripe_key":     true,
	"webhook_secret": true,
}

// isSensitiveKey checks if a key name should have its value redacted.
func isSensitiveKey(key string) bool {
	return sensitiveKeys[strings.ToLower(key)]
}

// AddSensitiveKey adds a key to the list of sensitive keys that will be redacted.
func AddSensitiveKey(key string) {
	sensitiveKeys[strings.ToLower(key)] = true
}

// =============================================================================
// Helper Functions
// =============================================================================

// parseLogLevel parses a log level string to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parseLogFormat parses a format string to Format.
func parseLogFormat(format string) Format {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text", "console":
		return FormatText
	default:
		return FormatJSON
	}
}

// parseBool parses a boolean string.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

