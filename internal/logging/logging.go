package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dori/tasktrackr/internal/config"
	log "github.com/sirupsen/logrus"
)

// New builds a logger writing to out
func New(cfg config.LogConfig, out io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	logger := log.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{DisableColors: true, FullTimestamp: true})
	}
	return logger, nil
}

// OpenFile builds a logger appending to path. The TUI owns stdout, so
// interactive commands log here.
func OpenFile(cfg config.LogConfig, path string) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger, err := New(cfg, f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return logger, f, nil
}

// Component returns an entry tagged with the component name
func Component(logger *log.Logger, name string) *log.Entry {
	return logger.WithField("component", name)
}
