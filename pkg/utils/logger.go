// Package utils provides logging setup shared by the kotae commands.
package utils

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevelEnv overrides the level chosen by the debug flag (debug, info, warn, error).
const LogLevelEnv = "KOTAE_LOG_LEVEL"

// NewLogger returns a zap logger. When debug is true, uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info level)
// with ISO8601 timestamps.
func NewLogger(debug bool) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	if lvl := strings.TrimSpace(os.Getenv(LogLevelEnv)); lvl != "" {
		level, err := zapcore.ParseLevel(lvl)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", LogLevelEnv, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}
	return cfg.Build()
}
