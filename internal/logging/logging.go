// Package logging builds the service's zap logger.
package logging

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fieldaccess/internal/config"
)

// New returns a logger writing to stdout/stderr when cfg.Dir is empty, and
// to errors.log and standard.log inside cfg.Dir otherwise. In debug mode
// file logging is mirrored to the console and debug entries are kept.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	dir := strings.TrimSpace(cfg.Dir)

	minLevel := zapcore.InfoLevel
	if cfg.Debug {
		minLevel = zapcore.DebugLevel
	}

	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})
	lowPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= minLevel && lvl < zapcore.ErrorLevel
	})

	stderr := zapcore.Lock(zapcore.AddSync(os.Stderr))
	stdout := zapcore.Lock(zapcore.AddSync(os.Stdout))

	if dir == "" {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		return zap.New(zapcore.NewTee(
			zapcore.NewCore(enc, stderr, highPriority),
			zapcore.NewCore(enc, stdout, lowPriority),
		)), nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create log directory %s", dir)
	}

	errFile, err := openLogFile(filepath.Join(dir, "errors.log"))
	if err != nil {
		return nil, err
	}
	stdFile, err := openLogFile(filepath.Join(dir, "standard.log"))
	if err != nil {
		return nil, err
	}

	fileEnc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	cores := []zapcore.Core{
		zapcore.NewCore(fileEnc, errFile, highPriority),
		zapcore.NewCore(fileEnc, stdFile, lowPriority),
	}
	if cfg.Debug {
		consoleEnc := zapcore.NewJSONEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores,
			zapcore.NewCore(consoleEnc, stderr, highPriority),
			zapcore.NewCore(consoleEnc, stdout, lowPriority),
		)
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

func openLogFile(path string) (zapcore.WriteSyncer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open log file %s", path)
	}
	return zapcore.Lock(zapcore.AddSync(f)), nil
}
