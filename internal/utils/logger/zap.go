package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger builds the zap logger used by domain and adapter code from
// the same level and format settings as the HTTP logger.
// The json format yields a production logger; text and console yield a
// development one.
func NewZapLogger(cfg *Config) (*zap.Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, err := zapcore.ParseLevel(normalizeZapLevel(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if isText(cfg.Format) {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "time"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}

func normalizeZapLevel(level string) string {
	switch l := strings.ToLower(strings.TrimSpace(level)); l {
	case "":
		return "info"
	case "warning":
		return "warn"
	default:
		return l
	}
}
