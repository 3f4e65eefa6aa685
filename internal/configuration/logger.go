package configuration

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the process logger from the log section.
func NewLogger(config LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if config.Development {
		zc = zap.NewDevelopmentConfig()
	}

	if config.Level != "" {
		level, err := zap.ParseAtomicLevel(config.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", config.Level, err)
		}
		zc.Level = level
	}

	return zc.Build()
}
