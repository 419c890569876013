package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const maxLoggedSQL = 512

// gormLogger sends GORM output to slog. Statements are only logged when they fail or run
// slower than slow, unless the level is raised to Info.
type gormLogger struct {
	log   *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

func newGormLogger(l *slog.Logger, level logger.LogLevel) *gormLogger {
	return &gormLogger{log: l.With("component", "gorm"), level: level, slow: 200 * time.Millisecond}
}

func (g *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	c := *g
	c.level = level
	return &c
}

func (g *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	g.emit(ctx, logger.Info, slog.LevelInfo, msg, data...)
}

func (g *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	g.emit(ctx, logger.Warn, slog.LevelWarn, msg, data...)
}

func (g *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	g.emit(ctx, logger.Error, slog.LevelError, msg, data...)
}

func (g *gormLogger) emit(ctx context.Context, threshold logger.LogLevel, level slog.Level, msg string, data ...interface{}) {
	if g.level < threshold {
		return
	}
	g.log.Log(ctx, level, fmt.Sprintf(msg, data...))
}

func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= logger.Error
	slow := g.slow > 0 && elapsed > g.slow && g.level >= logger.Warn
	if !failed && !slow && g.level < logger.Info {
		return
	}

	sql, rows := fc()
	if len(sql) > maxLoggedSQL {
		sql = sql[:maxLoggedSQL] + "..."
	}
	attrs := []any{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	switch {
	case failed:
		g.log.ErrorContext(ctx, "query failed", append(attrs, slog.String("error", err.Error()))...)
	case slow:
		g.log.WarnContext(ctx, "slow query", append(attrs, slog.Duration("threshold", g.slow))...)
	default:
		g.log.DebugContext(ctx, "query", attrs...)
	}
}
