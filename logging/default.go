package logging

import (
	"context"
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogger is a structured logger backed by zap.
// Debug/Info go to stdout, Warn and above to stderr.
type DefaultLogger struct {
	zl    *zap.Logger
	level zap.AtomicLevel
}

// NewDefaultLogger creates a console logger at info level
func NewDefaultLogger() *DefaultLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	return newSplitLogger(zapcore.NewConsoleEncoder(encCfg), InfoLevel,
		zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr))
}

// NewJSONLogger creates a JSON encoded logger at the given level with the
// same stdout/stderr split as NewDefaultLogger
func NewJSONLogger(level Level) *DefaultLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return newSplitLogger(zapcore.NewJSONEncoder(encCfg), level,
		zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr))
}

// newSplitLogger tees entries below Warn to out and the rest to errOut.
// Both sides honour the shared atomic level.
func newSplitLogger(enc zapcore.Encoder, level Level, out, errOut zapcore.WriteSyncer) *DefaultLogger {
	atomic := zap.NewAtomicLevelAt(toZapLevel(level))

	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l < zapcore.WarnLevel && atomic.Enabled(l)
	})
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.WarnLevel && atomic.Enabled(l)
	})

	core := zapcore.NewTee(
		zapcore.NewCore(enc, out, low),
		zapcore.NewCore(enc.Clone(), errOut, high),
	)

	zl := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.ErrorOutput(errOut))
	return &DefaultLogger{zl: zl, level: atomic}
}

// NewFromZap wraps an existing zap logger, e.g. zaptest.NewLogger in tests
func NewFromZap(zl *zap.Logger) *DefaultLogger {
	return &DefaultLogger{zl: zl, level: zap.NewAtomicLevelAt(zapcore.DebugLevel)}
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// zapFields flattens field maps into zap fields with a stable key order
func zapFields(fields []Fields) []zap.Field {
	merged := make(Fields)
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}
	if len(merged) == 0 {
		return nil
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, merged[k]))
	}
	return out
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.zl.Debug(msg, zapFields(fields)...)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.zl.Info(msg, zapFields(fields)...)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.zl.Warn(msg, zapFields(fields)...)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.zl.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

// Fatal logs and exits the process
func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.zl.Fatal(msg, append(zapFields(fields), zap.Error(err))...)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	return &DefaultLogger{
		zl:    d.zl.With(zapFields([]Fields{fields})...),
		level: d.level,
	}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := ctx.Value(contextKey{}).(Fields); ok {
		return d.WithFields(fields)
	}
	return d
}

// SetLevel changes the level for this logger and every logger derived from it
func (d *DefaultLogger) SetLevel(level Level) {
	d.level.SetLevel(toZapLevel(level))
}

// Sync flushes buffered entries
func (d *DefaultLogger) Sync() error {
	return d.zl.Sync()
}

// NoOpLogger discards everything; the global logger falls back to it when set to nil
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
