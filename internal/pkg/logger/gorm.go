package logger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

// SlogGormLogger 将 SQL 日志写入 slog，带上 ctx 中的 trace_id
type SlogGormLogger struct {
	LogLevel      logger.LogLevel
	SlowThreshold time.Duration
}

func NewGormLogger(slowThreshold time.Duration) *SlogGormLogger {
	return &SlogGormLogger{
		LogLevel:      logger.Warn,
		SlowThreshold: slowThreshold,
	}
}

func (l *SlogGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.LogLevel = level
	return &clone
}

func (l *SlogGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Info {
		slog.InfoContext(ctx, msg, "data", data)
	}
}

func (l *SlogGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Warn {
		slog.WarnContext(ctx, msg, "data", data)
	}
}

func (l *SlogGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Error {
		slog.ErrorContext(ctx, msg, "data", data)
	}
}

// Trace 出错记 ERROR，慢查询记 WARN，其余只在 Info 级别输出
func (l *SlogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, logger.ErrRecordNotFound)
	slow := l.SlowThreshold > 0 && elapsed > l.SlowThreshold

	switch {
	case failed && l.LogLevel >= logger.Error:
		sql, rows := fc()
		slog.ErrorContext(ctx, "SQL "+sqlOperation(sql)+" Error", sqlFields(sql, rows, elapsed, slog.Any("err", err))...)
	case slow && l.LogLevel >= logger.Warn:
		sql, rows := fc()
		slog.WarnContext(ctx, "SQL "+sqlOperation(sql)+" Slow", sqlFields(sql, rows, elapsed)...)
	case l.LogLevel >= logger.Info:
		sql, rows := fc()
		slog.InfoContext(ctx, "SQL "+sqlOperation(sql), sqlFields(sql, rows, elapsed)...)
	}
}

func sqlOperation(sql string) string {
	op, _, _ := strings.Cut(strings.TrimSpace(sql), " ")
	if op == "" {
		return "Query"
	}
	return strings.ToUpper(op)
}

func sqlFields(sql string, rows int64, elapsed time.Duration, extra ...any) []any {
	return append([]any{
		slog.String("sql", sql),
		slog.Duration("latency", elapsed),
		slog.Int64("rows", rows),
	}, extra...)
}
