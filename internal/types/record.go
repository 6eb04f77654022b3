package types

import (
	"strings"
	"time"
)

// Level represents logging severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String returns the string representation of a log level
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a log level string
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return DEBUG
	case "info":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// LogRecord is a single log call, produced by the logger and consumed once by a layout
type LogRecord struct {
	Timestamp time.Time
	Level     Level
	Context   string // dotted logger name, e.g. "server.http"
	Message   string
	Error     *ErrorInfo
	Meta      map[string]interface{}
	PID       int
}
