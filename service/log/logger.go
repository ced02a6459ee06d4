package log

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type logKeyType struct{}

var logKey logKeyType

var atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

var defaultLogger = newLogger()

func newLogger() *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stderr), atomicLevel)
	return zap.New(core)
}

// SetLevel sets the minimum level of the loggers
func SetLevel(l zapcore.Level) {
	atomicLevel.SetLevel(l)
}

// Logger returns the logger attached to the context, or the default logger
func Logger(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(logKey).(*zap.Logger); ok {
		return l
	}
	return defaultLogger
}

// With returns a context whose logger carries the given key/value pairs
func With(ctx context.Context, keysAndValues ...interface{}) context.Context {
	l := Logger(ctx).Sugar().With(keysAndValues...).Desugar()
	return context.WithValue(ctx, logKey, l)
}

// Fatal logs the message with the default logger and exits
func Fatal(msg string, fields ...zap.Field) {
	defaultLogger.Fatal(msg, fields...)
}
