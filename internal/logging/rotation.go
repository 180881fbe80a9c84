package logging

import (
	"errors"
	"fmt"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dmitrijs2005/saverpwd/internal/filex"
)

// Rotation configures a size-rotated log file.
type Rotation struct {
	File      string
	MaxSizeMB int
	MaxFiles  int
}

func NewRotatingWriter(cfg Rotation) (*lumberjack.Logger, error) {
	if cfg.File == "" {
		return nil, errors.New("log file path must not be empty")
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 5
	}
	if _, err := filex.EnsurePrivateDir(filepath.Dir(cfg.File)); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxFiles,
	}, nil
}
