package output

import (
    "fmt"
    "io"
    "os"
    "sync"

    "github.com/espegro/logtrail/internal/layout"
    "github.com/espegro/logtrail/internal/metrics"
    "github.com/espegro/logtrail/internal/types"
)

// ConsoleAppender writes one rendered line per record to stdout or stderr
type ConsoleAppender struct {
    w      io.Writer
    layout layout.Layout
    mu     sync.Mutex
}

// NewConsoleAppender creates a console appender for target "stdout" or "stderr"
func NewConsoleAppender(target string, l layout.Layout) (*ConsoleAppender, error) {
    switch target {
    case "", "stdout":
        return NewWriterAppender(os.Stdout, l), nil
    case "stderr":
        return NewWriterAppender(os.Stderr, l), nil
    default:
        return nil, fmt.Errorf("unknown console target %q", target)
    }
}

// NewWriterAppender creates a console appender over an arbitrary writer
func NewWriterAppender(w io.Writer, l layout.Layout) *ConsoleAppender {
    return &ConsoleAppender{
        w:      w,
        layout: l,
    }
}

// Append renders rec and writes it as a single line
func (a *ConsoleAppender) Append(rec types.LogRecord) error {
    line := render(a.layout, rec)

    a.mu.Lock()
    _, err := io.WriteString(a.w, line+"\n")
    a.mu.Unlock()

    metrics.RecordAppend("console", err)
    return err
}

// Close closes the appender (noop for console)
func (a *ConsoleAppender) Close() error {
    return nil
}
