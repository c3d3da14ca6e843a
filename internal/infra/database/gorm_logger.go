package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mkrupp/simpletodo/internal/infra/logging"
)

// GormLogger routes gorm's logging through the application logger.
type GormLogger struct {
	log       logging.Logger
	level     logger.LogLevel
	slowQuery time.Duration
}

var _ logger.Interface = (*GormLogger)(nil)

// NewGormLogger creates a gorm logger at the named level ("silent", "error",
// "warn", "info"). Queries slower than slowQuery are logged as warnings.
func NewGormLogger(level string, slowQuery time.Duration) *GormLogger {
	return &GormLogger{
		log:       logging.GetLogger("infra.database.gorm"),
		level:     parseGormLevel(level),
		slowQuery: slowQuery,
	}
}

func parseGormLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// LogMode implements logger.Interface.
func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level

	return &clone
}

// Info implements logger.Interface.
func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		l.log.InfoContext(ctx, fmt.Sprintf(msg, args...))
	}
}

// Warn implements logger.Interface.
func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		l.log.WarnContext(ctx, fmt.Sprintf(msg, args...))
	}
}

// Error implements logger.Interface.
func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		l.log.ErrorContext(ctx, fmt.Sprintf(msg, args...))
	}
}

// Trace implements logger.Interface. Record-not-found is expected by the
// repositories and is not logged as an error.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.log.ErrorContext(ctx, "query failed", "error", err,
			logging.Group("query", "sql", sql, "rows", rows, "elapsed", elapsed))
	case l.slowQuery > 0 && elapsed > l.slowQuery && l.level >= logger.Warn:
		sql, rows := fc()
		l.log.WarnContext(ctx, "slow query",
			logging.Group("query", "sql", sql, "rows", rows, "elapsed", elapsed))
	case l.level >= logger.Info:
		sql, rows := fc()
		l.log.DebugContext(ctx, "query",
			logging.Group("query", "sql", sql, "rows", rows, "elapsed", elapsed))
	}
}
