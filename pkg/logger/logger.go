package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

var (
	globalLogger = zap.NewNop()
	globalMu     sync.RWMutex
)

// SetupLogger builds the process logger for the given environment and
// installs it as the package-level logger.
func SetupLogger(env string, level string) *zap.Logger {
	lvl := zap.NewAtomicLevelAt(zap.InfoLevel)
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			lvl.SetLevel(zap.InfoLevel)
		}
	}

	var cfg zap.Config
	switch env {
	case envLocal, envDev:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case envProd:
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = lvl

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}

	SetLogger(l)

	return l
}

// SetLogger replaces the package-level logger. Tests use it with zaptest or
// observer loggers.
func SetLogger(l *zap.Logger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

func Logger() *zap.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

func Debug(msg string, fields ...zap.Field) {
	Logger().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	Logger().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Logger().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Logger().Error(msg, fields...)
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Logger().Sync()
}
