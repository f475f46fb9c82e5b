package infrastructure

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process-wide zap logger. Production emits JSON with
// ISO8601 timestamps for the log pipeline; other environments get colored
// console output. A non-empty level overrides each preset's default
// (info for production, debug otherwise).
func NewLogger(environment, level string) (*zap.Logger, error) {
	var config zap.Config
	if environment == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.EncoderConfig.MessageKey = "message"

	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level, err)
		}
		config.Level = zap.NewAtomicLevelAt(parsed)
	}

	return config.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
}

// SyncLogger flushes buffered entries on shutdown. Syncing a terminal
// stdout/stderr yields a path error that carries no signal, so only other
// failures get reported.
func SyncLogger(logger *zap.Logger) {
	err := logger.Sync()
	if err == nil {
		return
	}
	if _, pathErr := err.(*os.PathError); !pathErr {
		logger.Error("Failed to flush log buffer", zap.Error(err))
	}
}
