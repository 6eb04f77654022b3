package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"
)

// dropReportInterval bounds how often onDrop fires while records are rejected
const dropReportInterval = 5 * time.Second

// Limiter is a token bucket that admits up to perSec records per second.
// A limit of 0 admits everything.
type Limiter struct {
	perSec int
	onDrop func(total uint64)

	// Stats
	allowed uint64
	dropped uint64

	// Bucket
	tokens     int
	lastRefill time.Time
	lastReport time.Time
	now        func() time.Time
	mu         sync.Mutex
}

// New creates a limiter. onDrop, when set, is called for the first rejected
// record and then at most once every five seconds.
func New(perSec int, onDrop func(total uint64)) *Limiter {
	return newWithClock(perSec, onDrop, time.Now)
}

func newWithClock(perSec int, onDrop func(total uint64), now func() time.Time) *Limiter {
	return &Limiter{
		perSec:     perSec,
		onDrop:     onDrop,
		tokens:     perSec,
		lastRefill: now(),
		now:        now,
	}
}

// Allow reports whether one more record fits in the current budget
func (l *Limiter) Allow() bool {
	if l.perSec <= 0 {
		atomic.AddUint64(&l.allowed, 1)
		return true
	}

	l.mu.Lock()
	now := l.now()
	if elapsed := now.Sub(l.lastRefill); elapsed >= time.Second {
		l.tokens = min(l.tokens+int(elapsed/time.Second)*l.perSec, l.perSec)
		l.lastRefill = now
	}

	if l.tokens > 0 {
		l.tokens--
		l.mu.Unlock()
		atomic.AddUint64(&l.allowed, 1)
		return true
	}

	total := atomic.AddUint64(&l.dropped, 1)
	report := l.onDrop != nil && (l.lastReport.IsZero() || now.Sub(l.lastReport) > dropReportInterval)
	if report {
		l.lastReport = now
	}
	l.mu.Unlock()

	// Outside the lock so the callback may log through a limited appender
	if report {
		l.onDrop(total)
	}
	return false
}

// Stats returns how many records were allowed and dropped
func (l *Limiter) Stats() (allowed, dropped uint64) {
	return atomic.LoadUint64(&l.allowed), atomic.LoadUint64(&l.dropped)
}

// Reset clears the counters, leaving the bucket as is
func (l *Limiter) Reset() {
	atomic.StoreUint64(&l.allowed, 0)
	atomic.StoreUint64(&l.dropped, 0)
}
