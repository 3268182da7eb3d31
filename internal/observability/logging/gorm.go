package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const maxLoggedSQL = 2000

// GormLogger routes gorm output through slog. Claim and transition statements
// that miss are expected under contention, so record-not-found is never an error.
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormlogger.LogLevel
}

func NewGormLogger(slowThreshold time.Duration, level string) *GormLogger {
	return &GormLogger{
		SlowThreshold: slowThreshold,
		LogLevel:      ParseGormLevel(level),
	}
}

// ParseGormLevel maps the service log level onto gorm's. Query tracing is
// only enabled at debug.
func ParseGormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return gormlogger.Info
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	newLogger := *l
	newLogger.LogLevel = level

	return &newLogger
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.LogLevel >= gormlogger.Info {
		slog.InfoContext(ctx, fmt.Sprintf(msg, args...), slog.String("event", "db.log"))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.LogLevel >= gormlogger.Warn {
		slog.WarnContext(ctx, fmt.Sprintf(msg, args...), slog.String("event", "db.log"))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.LogLevel >= gormlogger.Error {
		slog.ErrorContext(ctx, fmt.Sprintf(msg, args...), slog.String("event", "db.log"))
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.LogLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)

	switch {
	case err != nil && l.LogLevel >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		slog.ErrorContext(ctx, "query error",
			slog.String("event", "db.query.fail"),
			slog.String("error", err.Error()),
			slog.Duration("duration", elapsed),
			slog.String("sql", truncateSQL(sql)),
			slog.Int64("rows", rows),
		)
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.LogLevel >= gormlogger.Warn:
		sql, rows := fc()
		slog.WarnContext(ctx, "slow query",
			slog.String("event", "db.query.slow"),
			slog.Duration("duration", elapsed),
			slog.Duration("threshold", l.SlowThreshold),
			slog.String("sql", truncateSQL(sql)),
			slog.Int64("rows", rows),
		)
	case l.LogLevel >= gormlogger.Info:
		sql, rows := fc()
		slog.DebugContext(ctx, "query executed",
			slog.String("event", "db.query"),
			slog.Duration("duration", elapsed),
			slog.String("sql", truncateSQL(sql)),
			slog.Int64("rows", rows),
		)
	}
}

func truncateSQL(sql string) string {
	if len(sql) <= maxLoggedSQL {
		return sql
	}

	return sql[:maxLoggedSQL] + "..."
}
