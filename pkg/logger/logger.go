package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging contract used across services and middleware.
type Logger interface {
	Debugf(ctx context.Context, format string, args ...interface{})
	Infof(ctx context.Context, format string, args ...interface{})
	Warnf(ctx context.Context, format string, args ...interface{})
	Errorf(ctx context.Context, format string, args ...interface{})
	Sync() error
}

type ctxKey string

const jobIDKey ctxKey = "job_id"

// WithJobID tags a context so every log line inside a run carries the job id.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDKey, jobID)
}

// ZapLogger implements Logger on top of zap.
type ZapLogger struct {
	logger *zap.Logger
}

// New builds a production zap logger at the given level.
func New(level string) (Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &ZapLogger{logger: l}, nil
}

// NewNop returns a logger that discards everything. For tests.
func NewNop() Logger {
	return &ZapLogger{logger: zap.NewNop()}
}

func (l *ZapLogger) extractFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if jobID, ok := ctx.Value(jobIDKey).(string); ok && jobID != "" {
		fields = append(fields, zap.String("job_id", jobID))
	}
	return fields
}

func (l *ZapLogger) Debugf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

func (l *ZapLogger) Infof(ctx context.Context, format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

func (l *ZapLogger) Warnf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

func (l *ZapLogger) Errorf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
