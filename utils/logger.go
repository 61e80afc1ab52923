package utils

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger   = zap.NewNop()
	loggerMu sync.RWMutex
)

// InitLogger builds the process-wide logger. Level is one of debug, info, warn, error.
func InitLogger(level string, development bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	SetLogger(l)
	return l, nil
}

// SetLogger replaces the process-wide logger.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

// Logger returns the process-wide logger.
func Logger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// LogInfo logs an informational message
func LogInfo(msg string, fields ...zap.Field) {
	Logger().Info(msg, fields...)
}

// LogError logs an error message
func LogError(msg string, fields ...zap.Field) {
	Logger().Error(msg, fields...)
}

// LogDebug logs a debug message
func LogDebug(msg string, fields ...zap.Field) {
	Logger().Debug(msg, fields...)
}

// LogOperation logs the outcome and duration of an operation
func LogOperation(operation string, startTime time.Time, err error) {
	duration := time.Since(startTime)
	if err != nil {
		Logger().Error("operation failed",
			zap.String("operation", operation),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}
	Logger().Info("operation completed",
		zap.String("operation", operation),
		zap.Duration("duration", duration),
	)
}
