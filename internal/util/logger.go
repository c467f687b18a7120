package util

import (
	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// NewLogger builds a logger for env: JSON with sampling in production, colored
// console otherwise. A non-empty level overrides the env default. Every entry
// carries the service name.
func NewLogger(env, level, service string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, errors.Wrapf(err, "log level %q", level)
		}
		cfg.Level = lvl
	}

	built, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return built.With(zap.String("service", service)), nil
}

// InitLogger installs the process-wide logger used by GetLogger and zap.L.
func InitLogger(env, level, service string) error {
	built, err := NewLogger(env, level, service)
	if err != nil {
		return err
	}
	SetLogger(built)
	zap.ReplaceGlobals(built)
	return nil
}

// GetLogger returns the global logger, falling back to a development logger.
func GetLogger() *zap.Logger {
	if logger == nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

// SetLogger replaces the global logger; tests install zap.NewNop here.
func SetLogger(l *zap.Logger) {
	logger = l
}

func SyncLogger() {
	if logger != nil {
		_ = logger.Sync()
	}
}
