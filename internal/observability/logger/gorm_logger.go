package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// SQLLogOptions tunes how database statements reach the request logger.
type SQLLogOptions struct {
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration
	// LogNotFound also reports gorm.ErrRecordNotFound, which most lookups treat as a normal miss.
	LogNotFound bool
}

func DefaultSQLLogOptions() SQLLogOptions {
	return SQLLogOptions{Level: gormlogger.Warn, SlowThreshold: 200 * time.Millisecond}
}

// SQLLogger routes gorm output through the zap logger carried on the context.
type SQLLogger struct {
	opts SQLLogOptions
}

func NewSQLLogger(opts SQLLogOptions) *SQLLogger {
	return &SQLLogger{opts: opts}
}

func (l *SQLLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	opts := l.opts
	opts.Level = level
	return &SQLLogger{opts: opts}
}

func (l *SQLLogger) Info(ctx context.Context, msg string, data ...any) {
	l.message(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

func (l *SQLLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.message(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

func (l *SQLLogger) Error(ctx context.Context, msg string, data ...any) {
	l.message(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *SQLLogger) message(ctx context.Context, min gormlogger.LogLevel, level zapcore.Level, msg string, data []any) {
	if l.opts.Level < min {
		return
	}
	fields := []zap.Field{zap.String("component", "db")}
	if len(data) > 0 {
		fields = append(fields, zap.Any("data", data))
	}
	if ce := FromContext(ctx).Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.opts.Level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	notFound := errors.Is(err, gormlogger.ErrRecordNotFound) && !l.opts.LogNotFound

	var level zapcore.Level
	switch {
	case err != nil && !notFound && l.opts.Level >= gormlogger.Error:
		level = zapcore.ErrorLevel
	case l.opts.SlowThreshold > 0 && elapsed > l.opts.SlowThreshold && l.opts.Level >= gormlogger.Warn:
		level = zapcore.WarnLevel
	case l.opts.Level >= gormlogger.Info:
		level = zapcore.DebugLevel
	default:
		return
	}

	ce := FromContext(ctx).Check(level, "db.query")
	if ce == nil {
		return
	}
	sql, rows := fc()
	verb, table := describeSQL(sql)
	fields := []zap.Field{
		zap.String("component", "db"),
		zap.String("db.operation", verb),
		zap.String("db.table", table),
		zap.String("db.statement", strings.TrimSpace(sql)),
		zap.Duration("elapsed", elapsed),
	}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows", rows))
	}
	if err != nil && !notFound {
		fields = append(fields, zap.Error(err))
	}
	ce.Write(fields...)
}

// ParamsFilter drops bound values; invitation tokens and password hashes pass through queries.
func (l *SQLLogger) ParamsFilter(_ context.Context, sql string, _ ...any) (string, []any) {
	return sql, nil
}

// describeSQL returns the statement verb and the first table it touches.
func describeSQL(sql string) (verb, table string) {
	verb = "UNKNOWN"
	tokens := strings.Fields(sql)
	for i, tok := range tokens {
		upper := strings.ToUpper(strings.Trim(tok, "();"))
		switch upper {
		case "SELECT", "INSERT", "UPDATE", "DELETE":
			if verb == "UNKNOWN" {
				verb = upper
			}
		}
		if table == "" && (upper == "FROM" || upper == "INTO" || upper == "UPDATE") && i+1 < len(tokens) {
			table = strings.Trim(tokens[i+1], "`\"();")
		}
	}
	return verb, table
}

var _ gormlogger.Interface = (*SQLLogger)(nil)
