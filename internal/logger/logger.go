package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/espegro/logtrail/internal/layout"
	"github.com/espegro/logtrail/internal/types"
)

// Appender receives finished records. internal/output provides the
// console, file, async and fan-out implementations.
type Appender interface {
	Append(rec types.LogRecord) error
	Close() error
}

// Logger is a leveled logger bound to a context name. Children created
// with Get share level and appenders with their parent.
type Logger struct {
	context string
	core    *core
}

type core struct {
	level     types.Level
	appenders []Appender
	pid       int
	fallback  io.Writer // where append failures are reported
	mu        sync.Mutex
}

var (
	// Default logger instance
	defaultLogger *Logger
	once          sync.Once
)

// New creates a logger writing to the given appenders
func New(context string, level types.Level, appenders ...Appender) *Logger {
	return &Logger{
		context: context,
		core: &core{
			level:     level,
			appenders: appenders,
			pid:       os.Getpid(),
			fallback:  os.Stderr,
		},
	}
}

// Init initializes the default logger
func Init(level string, context string, appenders ...Appender) {
	defaultLogger = New(context, types.ParseLevel(level), appenders...)
}

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	once.Do(func() {
		if defaultLogger == nil {
			// Initialize with defaults if not already initialized
			defaultLogger = New("logtrail", types.INFO, NewWriterAppender(os.Stdout, layout.NewPatternLayout(layout.DefaultPattern)))
		}
	})
	return defaultLogger
}

// Get returns a child of the default logger, see Logger.Get
func Get(name string) *Logger {
	return GetLogger().Get(name)
}

// Get returns a child logger whose context is "<parent>.<name>"
func (l *Logger) Get(name string) *Logger {
	ctx := name
	if l.context != "" {
		ctx = l.context + "." + name
	}
	return &Logger{context: ctx, core: l.core}
}

// Context returns the dotted logger name
func (l *Logger) Context() string {
	return l.context
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level types.Level) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.level = level
}

// GetLevel returns the current logging level
func (l *Logger) GetLevel() types.Level {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	return l.core.level
}

// Log builds a record and hands it to every appender
func (l *Logger) Log(level types.Level, err error, format string, args ...interface{}) {
	if level < l.GetLevel() {
		return
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	l.Write(types.LogRecord{
		Timestamp: time.Now(),
		Level:     level,
		Context:   l.context,
		Message:   msg,
		Error:     types.FromError(err),
		PID:       l.core.pid,
	})
}

// Write passes an already built record to the appenders, bypassing the
// level check. Used to replay records decoded from another process.
//
// Appenders run outside the logger's lock and serialise their own writes,
// so an appender callback may log through the same logger.
func (l *Logger) Write(rec types.LogRecord) {
	l.core.mu.Lock()
	appenders := l.core.appenders
	l.core.mu.Unlock()

	for _, a := range appenders {
		if err := a.Append(rec); err != nil {
			fmt.Fprintf(l.core.fallback, "logtrail: appender %T failed: %v\n", a, err)
		}
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.Log(types.DEBUG, nil, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(types.INFO, nil, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.Log(types.WARN, nil, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(types.ERROR, nil, format, args...)
}

// ErrorErr logs an error message with err attached; layouts render the
// error (and its causes) in place of the message.
func (l *Logger) ErrorErr(err error, format string, args ...interface{}) {
	l.Log(types.ERROR, err, format, args...)
}

// Close closes all appenders and returns the first failure
func (l *Logger) Close() error {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	var first error
	for _, a := range l.core.appenders {
		if err := a.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.core.appenders = nil
	return first
}

// Package-level convenience functions

// Debug logs a debug message using the default logger
func Debug(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}

// Info logs an info message using the default logger
func Info(format string, args ...interface{}) {
	GetLogger().Info(format, args...)
}

// Warn logs a warning message using the default logger
func Warn(format string, args ...interface{}) {
	GetLogger().Warn(format, args...)
}

// Error logs an error message using the default logger
func Error(format string, args ...interface{}) {
	GetLogger().Error(format, args...)
}

// ErrorErr logs an error with err attached using the default logger
func ErrorErr(err error, format string, args ...interface{}) {
	GetLogger().ErrorErr(err, format, args...)
}

// SetLevel sets the logging level on the default logger
func SetLevel(level types.Level) {
	GetLogger().SetLevel(level)
}

// Close closes the default logger's appenders
func Close() error {
	return GetLogger().Close()
}

// writerAppender is the bootstrap appender used before Init
type writerAppender struct {
	w      io.Writer
	layout layout.Layout
	mu     sync.Mutex
}

// NewWriterAppender renders records with l and writes one line per record to w
func NewWriterAppender(w io.Writer, l layout.Layout) Appender {
	return &writerAppender{w: w, layout: l}
}

func (a *writerAppender) Append(rec types.LogRecord) error {
	line := a.layout.Format(rec) + "\n"

	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := io.WriteString(a.w, line)
	return err
}

func (a *writerAppender) Close() error {
	return nil
}
