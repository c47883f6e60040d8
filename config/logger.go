package config

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CreateLogger builds a development or production zap logger at the
// configured level.
func (l *LogConfig) CreateLogger() (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if l.Level != "" {
		var err error
		if level, err = zapcore.ParseLevel(l.Level); err != nil {
			return nil, errors.Wrapf(ErrInvalid, "log level %q", l.Level)
		}
	}
	cfg := zap.NewProductionConfig()
	if l.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return logger, nil
}
