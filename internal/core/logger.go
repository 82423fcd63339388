package core

import (
	"go.uber.org/zap"
)

// NewLogger replaces the global logger with a production logger at the configured level.
func NewLogger(level string) *zap.Logger {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		zap.L().Warn("Unknown log level, keeping info", zap.String("level", level))
		atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config := zap.NewProductionConfig()
	config.Level = atomicLevel

	logger := zap.Must(config.Build())
	zap.ReplaceGlobals(logger)
	return logger
}
