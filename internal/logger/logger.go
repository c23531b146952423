package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines the dbmaint logging contract.
// Implementations should support standard log levels and be safe for concurrent use.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// ZapLogger wraps a sugared zap logger to implement the dbmaint logging contract.
type ZapLogger struct {
	logger *zap.SugaredLogger
}

// New creates a console-encoded ZapLogger writing to w at the given level.
// Unknown levels fall back to info.
func New(level string, w zapcore.WriteSyncer) *ZapLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), w, ParseLevel(level))
	return FromZap(zap.New(core))
}

// FromZap adapts an existing zap logger.
func FromZap(l *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: l.Sugar()}
}

// With returns a child logger carrying the given key/value pairs on every entry.
func (l *ZapLogger) With(kv ...any) *ZapLogger {
	return &ZapLogger{logger: l.logger.With(kv...)}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func (l *ZapLogger) Info(msg string, args ...any) {
	l.logger.Infof(msg, args...)
}

func (l *ZapLogger) Warn(msg string, args ...any) {
	l.logger.Warnf(msg, args...)
}

func (l *ZapLogger) Error(msg string, args ...any) {
	l.logger.Errorf(msg, args...)
}

func (l *ZapLogger) Debug(msg string, args ...any) {
	l.logger.Debugf(msg, args...)
}

// ParseLevel converts "debug", "info", "warn" or "error" to a zap level.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
