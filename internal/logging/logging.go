// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"feed-export/pkg/config"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Init applies level, format and outputs from cfg. When cfg.File is set the
// log is also written to a rotating file. The returned closer releases it.
func Init(cfg config.Logging, verbose bool, stderr io.Writer) (io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)

	switch cfg.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.File == "" {
		logrus.SetOutput(stderr)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
	logrus.SetOutput(io.MultiWriter(stderr, file))
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
