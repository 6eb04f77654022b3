package output

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/espegro/logtrail/internal/metrics"
	"github.com/espegro/logtrail/internal/types"
)

// ErrClosed is returned by Append after Close
var ErrClosed = errors.New("appender closed")

// Drop policies for a full async queue
const (
	DropOldest = "oldest"
	DropNewest = "newest"
)

// AsyncAppender queues records for a background worker that feeds the
// wrapped appender. Append never blocks: when the queue is full a record
// is dropped according to the drop policy.
type AsyncAppender struct {
	next         Appender
	queue        chan types.LogRecord
	dropPolicy   string
	onDrop       func(total uint64)
	droppedCount uint64

	mu     sync.RWMutex // guards closed against concurrent Append/Close
	closed bool
	done   chan struct{}
}

// NewAsyncAppender starts the worker. onDrop, if set, is called on the
// first drop and every 100th after that.
func NewAsyncAppender(next Appender, bufferSize int, dropPolicy string, onDrop func(total uint64)) *AsyncAppender {
	if bufferSize <= 0 {
		bufferSize = 1000 // Default fallback
	}
	if dropPolicy == "" {
		dropPolicy = DropOldest
	}

	a := &AsyncAppender{
		next:       next,
		queue:      make(chan types.LogRecord, bufferSize),
		dropPolicy: dropPolicy,
		onDrop:     onDrop,
		done:       make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncAppender) run() {
	defer close(a.done)
	for rec := range a.queue {
		metrics.AsyncQueueDepth.Set(float64(len(a.queue)))
		// the wrapped appender records its own failures
		_ = a.next.Append(rec)
	}
	metrics.AsyncQueueDepth.Set(0)
}

// Append queues rec. Returns nil when queued, and also when the record was
// dropped; use Dropped to observe drops.
func (a *AsyncAppender) Append(rec types.LogRecord) error {
	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		return ErrClosed
	}

	var dropped uint64
	select {
	case a.queue <- rec:
		// Successfully queued
	default:
		// Queue is full - drop based on policy
		dropped = a.handleFullQueue(rec)
	}
	a.mu.RUnlock()

	// Report every 100th drop to avoid log spam. Called without the lock
	// held so the callback may log through this appender.
	if a.onDrop != nil && dropped%100 == 1 {
		a.onDrop(dropped)
	}
	return nil
}

// handleFullQueue handles a full queue based on drop policy and returns
// the total number of drops so far
func (a *AsyncAppender) handleFullQueue(rec types.LogRecord) uint64 {
	dropped := atomic.AddUint64(&a.droppedCount, 1)
	metrics.RecordsDropped.Inc()

	if a.dropPolicy != DropOldest {
		// Drop the new record
		return dropped
	}

	// Try to drop oldest record and add new one
	select {
	case <-a.queue:
	default:
		// Worker drained it meanwhile
	}
	select {
	case a.queue <- rec:
	default:
		// Still full (race with other writers), the new record is lost too
	}
	return dropped
}

// Dropped returns the number of dropped records
func (a *AsyncAppender) Dropped() uint64 {
	return atomic.LoadUint64(&a.droppedCount)
}

// Close stops accepting records, waits for the queue to drain and closes
// the wrapped appender. Safe to call more than once.
func (a *AsyncAppender) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.next.Close()
}
