package output

import (
	"errors"
	"fmt"

	"github.com/espegro/logtrail/internal/config"
	"github.com/espegro/logtrail/internal/layout"
	"github.com/espegro/logtrail/internal/ratelimit"
)

// Drop reasons passed to the FromConfig callback
const (
	DropQueueFull   = "queue_full"
	DropRateLimited = "rate_limited"
)

// FromConfig builds the appender chain for cfg: the enabled appenders
// behind a fan-out, optionally behind an async queue and a rate limiter.
// onDrop may be nil.
func FromConfig(cfg config.LoggingConfig, onDrop func(reason string, total uint64)) (Appender, error) {
	l, err := layout.New(cfg.Layout)
	if err != nil {
		return nil, fmt.Errorf("creating layout: %w", err)
	}

	var appenders []Appender

	if cfg.Appenders.Console.Enabled {
		console, err := NewConsoleAppender(cfg.Appenders.Console.Target, l)
		if err != nil {
			return nil, fmt.Errorf("creating console appender: %w", err)
		}
		appenders = append(appenders, console)
	}

	if cfg.Appenders.File.Enabled {
		file, err := NewFileAppender(FileAppenderConfig{
			Path:       cfg.Appenders.File.Path,
			MaxSizeMB:  cfg.Appenders.File.MaxSizeMB,
			MaxBackups: cfg.Appenders.File.MaxBackups,
			MaxAgeDays: cfg.Appenders.File.MaxAgeDays,
			Compress:   cfg.Appenders.File.Compress,
		}, l)
		if err != nil {
			return nil, fmt.Errorf("creating file appender: %w", err)
		}
		appenders = append(appenders, file)
	}

	if len(appenders) == 0 {
		return nil, errors.New("no appenders enabled")
	}

	var out Appender = NewFanout(appenders...)
	if cfg.Async.Enabled {
		out = NewAsyncAppender(out, cfg.Async.BufferSize, cfg.Async.DropPolicy, dropHook(onDrop, DropQueueFull))
	}
	if cfg.RateLimit.MaxPerSec > 0 {
		out = NewLimitedAppender(out, ratelimit.New(cfg.RateLimit.MaxPerSec, dropHook(onDrop, DropRateLimited)))
	}
	return out, nil
}

func dropHook(onDrop func(string, uint64), reason string) func(uint64) {
	if onDrop == nil {
		return nil
	}
	return func(total uint64) { onDrop(reason, total) }
}
