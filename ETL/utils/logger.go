package utils

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ETLLogger is the logger of the analytics pipeline. Debug output is only written in
// verbose mode.
type ETLLogger struct {
	log       *zap.Logger
	sugar     *zap.SugaredLogger
	isVerbose bool
}

// NewETLLogger builds a JSON zap logger at the given level (debug, info, warn, error).
func NewETLLogger(level string, verbose bool) (*ETLLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	if level == "" {
		level = "info"
	}
	if verbose {
		level = "debug"
	}
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger, err := cfg.Build(zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, err
	}
	return WrapLogger(logger, verbose), nil
}

// WrapLogger wraps an existing zap logger, e.g. zap.NewNop() in tests.
func WrapLogger(logger *zap.Logger, verbose bool) *ETLLogger {
	return &ETLLogger{
		log:       logger,
		sugar:     logger.Sugar(),
		isVerbose: verbose,
	}
}

// Zap exposes the underlying logger.
func (l *ETLLogger) Zap() *zap.Logger { return l.log }

// Info logs a formatted informational message
func (l *ETLLogger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warn logs a formatted warning
func (l *ETLLogger) Warn(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Error logs a formatted error
func (l *ETLLogger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Debug logs only in verbose mode
func (l *ETLLogger) Debug(format string, v ...interface{}) {
	if !l.isVerbose {
		return
	}
	l.sugar.Debugf(format, v...)
}

// With returns a child logger carrying the given fields.
func (l *ETLLogger) With(fields ...zap.Field) *ETLLogger {
	return WrapLogger(l.log.With(fields...), l.isVerbose)
}

// LogPhaseStart logs the start of a pipeline phase and returns its start time.
func (l *ETLLogger) LogPhaseStart(phase string) time.Time {
	l.log.Info("phase started", zap.String("phase", phase))
	return time.Now()
}

// LogPhaseComplete logs the end of a pipeline phase with extra counters.
func (l *ETLLogger) LogPhaseComplete(phase string, started time.Time, fields ...zap.Field) {
	fields = append([]zap.Field{
		zap.String("phase", phase),
		zap.Duration("duration", time.Since(started)),
	}, fields...)
	l.log.Info("phase completed", fields...)
}

// Sync flushes buffered entries.
func (l *ETLLogger) Sync() {
	_ = l.log.Sync()
}
