// Package logger builds the structured logger every command and library
// entry point writes through. Adapted from the teacher's
// pkg/logger/logger.go: viper supplies defaults for the log level and
// timestamp format, zap builds the actual logger core. The teacher's
// logger.New() reached into two sibling subpackages (pkg/logger/config,
// pkg/logger/zap) for the level enum and the zapcore wiring; this version
// inlines both, since they had no content worth keeping as separate
// packages once OSM-specific fields were stripped out.
package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors the small level enum the teacher kept in
// pkg/logger/config: just the names operators actually pass on the
// command line or in a config file.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func ParseLevel(s string) (Level, error) {
	switch s {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("logger: unknown log level %q", s)
	}
}

// Config is the subset of viper-sourced settings the logger needs.
type Config struct {
	Level      Level
	TimeFormat string
}

func (c Config) validate() error {
	if c.TimeFormat == "" {
		return fmt.Errorf("logger: time format must not be empty")
	}
	return nil
}

// New builds the process logger. LOG_LEVEL and LOG_TIME_FORMAT are read
// from viper with the same defaulting pattern the teacher used, so a
// deployment can override either via environment variable, flag, or
// config file without this package knowing which.
func New() (*zap.Logger, error) {
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_TIME_FORMAT", time.RFC3339Nano)

	level, err := ParseLevel(viper.GetString("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}
	cfg := Config{
		Level:      level,
		TimeFormat: viper.GetString("LOG_TIME_FORMAT"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return build(cfg)
}

func build(cfg Config) (*zap.Logger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout(cfg.TimeFormat)

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(os.Stdout)),
		cfg.Level.zapLevel(),
	)
	return zap.New(core, zap.AddCaller()), nil
}
