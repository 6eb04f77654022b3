package output

import (
	"github.com/espegro/logtrail/internal/metrics"
	"github.com/espegro/logtrail/internal/ratelimit"
	"github.com/espegro/logtrail/internal/types"
)

// LimitedAppender forwards records while the limiter allows them and
// silently discards the rest
type LimitedAppender struct {
	next    Appender
	limiter *ratelimit.Limiter
}

// NewLimitedAppender wraps next with limiter
func NewLimitedAppender(next Appender, limiter *ratelimit.Limiter) *LimitedAppender {
	return &LimitedAppender{
		next:    next,
		limiter: limiter,
	}
}

// Append forwards rec, or drops it when over budget. A drop is not an error.
func (a *LimitedAppender) Append(rec types.LogRecord) error {
	if !a.limiter.Allow() {
		metrics.RecordsRateLimited.Inc()
		return nil
	}
	return a.next.Append(rec)
}

// Stats returns the limiter's allowed and dropped counts
func (a *LimitedAppender) Stats() (allowed, dropped uint64) {
	return a.limiter.Stats()
}

// Close closes the wrapped appender
func (a *LimitedAppender) Close() error {
	return a.next.Close()
}
