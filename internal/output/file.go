package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/espegro/logtrail/internal/layout"
	"github.com/espegro/logtrail/internal/metrics"
	"github.com/espegro/logtrail/internal/types"
)

// FileAppender writes records to a file with rotation support
type FileAppender struct {
	logger *lumberjack.Logger
	layout layout.Layout
	mu     sync.Mutex
}

// FileAppenderConfig holds configuration for the file appender
type FileAppenderConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewFileAppender creates a new file appender with rotation
func NewFileAppender(cfg FileAppenderConfig, l layout.Layout) (*FileAppender, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file appender: empty path")
	}

	// Ensure directory exists
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory %s: %w", dir, err)
	}

	// Set defaults if not specified
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 100
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 10
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = 30
	}

	logger := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB, // megabytes
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays, // days
		Compress:   cfg.Compress,
		LocalTime:  true,
	}

	return &FileAppender{
		logger: logger,
		layout: l,
	}, nil
}

// Append renders rec and appends it to the log file
func (a *FileAppender) Append(rec types.LogRecord) error {
	line := render(a.layout, rec)

	a.mu.Lock()
	_, err := io.WriteString(a.logger, line+"\n")
	a.mu.Unlock()

	metrics.RecordAppend("file", err)
	return err
}

// Close closes the file appender
func (a *FileAppender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.logger.Close()
}

// Rotate forces a log rotation
func (a *FileAppender) Rotate() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.logger.Rotate()
}
