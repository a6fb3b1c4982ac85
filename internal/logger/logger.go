package logger

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment variables read by InitFromEnv.
const (
	envLogPath = "CLOCKVERSE_LOG"
	envAppEnv  = "APP_ENV"
)

var (
	mu   sync.Mutex
	base *zap.Logger
)

// InitFromEnv initializes the logger using CLOCKVERSE_LOG or a file next to
// the executable. "stdout" and "stderr" are accepted as paths.
func InitFromEnv() error {
	path := os.Getenv(envLogPath)
	if path == "" {
		if exePath, err := os.Executable(); err == nil {
			path = filepath.Join(filepath.Dir(exePath), "clockverse.log")
		} else {
			path = "./clockverse.log"
		}
	}
	return Init(path)
}

// Init builds the process logger writing to path. The encoding is JSON when
// APP_ENV=production and console otherwise. Calling Init again is a no-op.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if base != nil {
		return nil
	}
	if err := ensureParentDir(path); err != nil {
		return err
	}
	l, err := build(os.Getenv(envAppEnv), path)
	if err != nil {
		return err
	}
	base = l
	return nil
}

func build(env, path string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		if path == "stdout" || path == "stderr" {
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	}
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// L returns the process logger, initializing it from the environment on
// first use.
func L() *zap.Logger {
	mu.Lock()
	l := base
	mu.Unlock()
	if l != nil {
		return l
	}
	if err := InitFromEnv(); err != nil {
		return zap.NewNop()
	}
	mu.Lock()
	defer mu.Unlock()
	return base
}

// Named returns a child logger for one component.
func Named(name string) *zap.Logger { return L().Named(name) }

// Close flushes buffered entries.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if base == nil {
		return nil
	}
	err := base.Sync()
	base = nil
	return err
}

// Infof logs informational messages.
func Infof(format string, args ...any) { L().Sugar().Infof(format, args...) }

// Warnf logs warnings.
func Warnf(format string, args ...any) { L().Sugar().Warnf(format, args...) }

// Errorf logs errors.
func Errorf(format string, args ...any) { L().Sugar().Errorf(format, args...) }

func ensureParentDir(path string) error {
	if path == "stdout" || path == "stderr" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
