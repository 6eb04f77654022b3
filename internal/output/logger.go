package output

import (
	"time"

	"github.com/espegro/logtrail/internal/layout"
	"github.com/espegro/logtrail/internal/metrics"
	"github.com/espegro/logtrail/internal/types"
)

// Appender is the interface for record outputs
type Appender interface {
	// Append writes a single record
	Append(rec types.LogRecord) error

	// Close closes the appender and flushes any buffered data
	Close() error
}

// render formats rec and observes layout latency
func render(l layout.Layout, rec types.LogRecord) string {
	start := time.Now()
	line := l.Format(rec)
	metrics.FormatDuration.Observe(time.Since(start).Seconds())
	return line
}
