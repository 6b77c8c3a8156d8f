// Package observability provides structured logging for skilltheme.
package observability

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/m-mizutani/masq"

	"github.com/skilltree/skilltheme/internal/config"
)

// Attribute keys masked in every record, in addition to struct fields
// tagged masq:"secret".
var sensitiveKeys = []string{"dsn", "password", "token", "secret"}

// NewLoggerWithWriter builds the application logger writing to w. Format
// "text" selects slog's text handler; anything else is JSON.
func NewLoggerWithWriter(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       ParseLevel(cfg.Level),
		AddSource:   cfg.AddSource,
		ReplaceAttr: replaceAttr(cfg.TimeFormat),
	}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func replaceAttr(timeFormat string) func([]string, slog.Attr) slog.Attr {
	maskOpts := []masq.Option{masq.WithTag("secret")}
	for _, key := range sensitiveKeys {
		maskOpts = append(maskOpts,
			masq.WithFieldName(key),
			masq.WithFieldName(strings.ToUpper(key[:1])+key[1:]),
			masq.WithFieldName(strings.ToUpper(key)),
		)
	}
	mask := masq.New(maskOpts...)

	return func(groups []string, a slog.Attr) slog.Attr {
		if timeFormat != "" && len(groups) == 0 && a.Key == slog.TimeKey {
			if t, ok := a.Value.Any().(time.Time); ok {
				return slog.String(slog.TimeKey, t.Format(timeFormat))
			}
		}
		return mask(groups, a)
	}
}

// ParseLevel parses debug, info, warn or error in any case. Unknown values
// yield info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// SetDefault installs logger as the slog default.
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}

// WithRequestID tags logger with a request ID.
func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With(slog.String("request_id", requestID))
}

// WithComponent tags logger with the emitting component.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}

// WithProject tags logger with a project ID.
func WithProject(logger *slog.Logger, projectID string) *slog.Logger {
	return logger.With(slog.String("project_id", projectID))
}

// TimedOperationWithError logs the start of operation and returns a func
// that logs its outcome and duration. *errPtr is read when that func runs,
// so the error may be assigned later.
//
//	var err error
//	done := observability.TimedOperationWithError(ctx, logger, "load_theme_files", &err)
//	defer done()
//
//nolint:gocritic // errPtr must be a pointer to capture errors set after this call
func TimedOperationWithError(ctx context.Context, logger *slog.Logger, operation string, errPtr *error) func() {
	start := time.Now()
	logger.InfoContext(ctx, "operation started", slog.String("operation", operation))

	return func() {
		attrs := []slog.Attr{
			slog.String("operation", operation),
			slog.Duration("duration", time.Since(start)),
		}
		if errPtr != nil && *errPtr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "operation failed", append(attrs, slog.String("error", (*errPtr).Error()))...)
			return
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "operation completed", attrs...)
	}
}
