// Package logging builds the process logger from an optional zap
// configuration file plus level and encoding overrides.
package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Options selects the logger configuration. Level and Format override the
// values read from ConfigFile when they are set.
type Options struct {
	Level      string
	Format     string
	ConfigFile string
}

func defaultConfig() zap.Config {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	cfg.Sampling = nil
	return cfg
}

// New builds a logger. A missing ConfigFile leaves the defaults in place:
// info level, console encoding, stderr output.
func New(opts Options) (*zap.Logger, error) {
	cfg := defaultConfig()

	if opts.ConfigFile != "" {
		data, err := os.ReadFile(opts.ConfigFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read log config %s: %w", opts.ConfigFile, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse log config %s: %w", opts.ConfigFile, err)
			}
		}
	}

	if opts.Level != "" {
		lvl, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	if opts.Format != "" {
		cfg.Encoding = opts.Format
	}

	return cfg.Build()
}

// Bootstrap returns the default logger used until the configuration is loaded.
func Bootstrap() *zap.Logger {
	l, err := defaultConfig().Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Install makes l the global zap logger and routes the standard library
// logger through it. The returned func undoes both.
func Install(l *zap.Logger) func() {
	undoGlobals := zap.ReplaceGlobals(l)
	undoStd := zap.RedirectStdLog(l)
	return func() {
		undoStd()
		undoGlobals()
	}
}
