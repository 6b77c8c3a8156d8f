package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	slowQueryThreshold = 200 * time.Millisecond
	// Theme documents are interpolated into upserts, so statements get long.
	maxLoggedSQL      = 200
	poolStatsInterval = time.Minute
)

// gormLogger routes GORM output to slog. Queries are logged at debug, slow
// queries at warn and failures at error; record-not-found is not a failure.
type gormLogger struct {
	log   *slog.Logger
	level logger.LogLevel
	pool  *sql.DB

	mu            sync.Mutex
	lastPoolStats time.Time
}

func newGormLogger(log *slog.Logger, level string) *gormLogger {
	return &gormLogger{log: log, level: parseGormLevel(level)}
}

func parseGormLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{log: l.log, level: level, pool: l.pool}
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Info {
		l.log.InfoContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Warn {
		l.log.WarnContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Error {
		l.log.ErrorContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)

	switch {
	case failed && l.level >= logger.Error:
		stmt, rows := fc()
		kind := classifyError(err)
		if kind == "locked" {
			l.logPoolStats(ctx)
		}
		l.log.ErrorContext(ctx, "database error",
			slog.String("kind", kind),
			slog.String("sql", truncateSQL(stmt)),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
	case elapsed > slowQueryThreshold && l.level >= logger.Warn:
		stmt, rows := fc()
		l.log.WarnContext(ctx, "slow query",
			slog.String("sql", truncateSQL(stmt)),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	case l.level >= logger.Info && l.log.Enabled(ctx, slog.LevelDebug):
		// fc interpolates the statement, so only call it when the record is kept.
		stmt, rows := fc()
		l.log.DebugContext(ctx, "database query",
			slog.String("sql", truncateSQL(stmt)),
			slog.Int64("rows", rows),
			slog.Duration("elapsed", elapsed),
		)
	}
}

func classifyError(err error) string {
	msg := err.Error()
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case strings.Contains(msg, "database is locked"):
		return "locked"
	case strings.Contains(msg, "UNIQUE constraint"), strings.Contains(msg, "duplicate key"):
		return "constraint"
	default:
		return "other"
	}
}

// logPoolStats reports pool pressure at most once per poolStatsInterval.
func (l *gormLogger) logPoolStats(ctx context.Context) {
	if l.pool == nil {
		return
	}
	l.mu.Lock()
	if time.Since(l.lastPoolStats) < poolStatsInterval {
		l.mu.Unlock()
		return
	}
	l.lastPoolStats = time.Now()
	l.mu.Unlock()

	stats := l.pool.Stats()
	l.log.WarnContext(ctx, "connection pool under contention",
		slog.Int("open", stats.OpenConnections),
		slog.Int("in_use", stats.InUse),
		slog.Int64("wait_count", stats.WaitCount),
		slog.Duration("wait", stats.WaitDuration),
	)
}

func truncateSQL(stmt string) string {
	if len(stmt) <= maxLoggedSQL {
		return stmt
	}
	return stmt[:maxLoggedSQL] + "... (truncated)"
}
