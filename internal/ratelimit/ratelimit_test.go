package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is advanced by hand
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func TestAllow_Unlimited(t *testing.T) {
	limiter := New(0, nil) // 0 = unlimited

	for i := 0; i < 10000; i++ {
		if !limiter.Allow() {
			t.Fatalf("Record %d was rejected with unlimited rate", i)
		}
	}

	allowed, dropped := limiter.Stats()
	if allowed != 10000 {
		t.Errorf("Expected 10000 allowed, got %d", allowed)
	}
	if dropped != 0 {
		t.Errorf("Expected 0 dropped, got %d", dropped)
	}
}

func TestAllow_RateLimit(t *testing.T) {
	clock := newClock()
	limiter := newWithClock(100, nil, clock.Now)

	allowed := 0
	for i := 0; i < 150; i++ {
		if limiter.Allow() {
			allowed++
		}
	}

	if allowed != 100 {
		t.Errorf("Expected 100 records allowed, got %d", allowed)
	}

	a, d := limiter.Stats()
	if a != 100 || d != 50 {
		t.Errorf("Stats mismatch: allowed=%d, dropped=%d", a, d)
	}
}

func TestAllow_Refill(t *testing.T) {
	clock := newClock()
	limiter := newWithClock(10, nil, clock.Now)

	for i := 0; i < 10; i++ {
		limiter.Allow()
	}
	if limiter.Allow() {
		t.Error("Expected record to be rejected after exhausting tokens")
	}

	clock.Advance(500 * time.Millisecond)
	if limiter.Allow() {
		t.Error("Expected no refill before a full second")
	}

	clock.Advance(600 * time.Millisecond)
	allowed := 0
	for i := 0; i < 20; i++ {
		if limiter.Allow() {
			allowed++
		}
	}
	if allowed != 10 {
		t.Errorf("Expected 10 records allowed after refill, got %d", allowed)
	}
}

func TestAllow_RefillCapped(t *testing.T) {
	clock := newClock()
	limiter := newWithClock(5, nil, clock.Now)

	clock.Advance(time.Minute)

	allowed := 0
	for i := 0; i < 100; i++ {
		if limiter.Allow() {
			allowed++
		}
	}
	if allowed != 5 {
		t.Errorf("Expected bucket capped at 5, got %d", allowed)
	}
}

func TestAllow_OnDropThrottled(t *testing.T) {
	clock := newClock()

	var reports []uint64
	limiter := newWithClock(1, func(total uint64) {
		reports = append(reports, total)
	}, clock.Now)

	limiter.Allow() // uses the only token
	limiter.Allow() // first drop, reported
	limiter.Allow() // within the interval, silent

	clock.Advance(6 * time.Second)
	limiter.Allow() // refilled
	limiter.Allow() // reported again

	if len(reports) != 2 {
		t.Fatalf("Expected 2 drop reports, got %v", reports)
	}
	if reports[0] != 1 || reports[1] != 3 {
		t.Errorf("Unexpected drop totals %v", reports)
	}
}

func TestReset(t *testing.T) {
	limiter := New(10, nil)

	for i := 0; i < 20; i++ {
		limiter.Allow()
	}

	allowed, dropped := limiter.Stats()
	if allowed == 0 || dropped == 0 {
		t.Fatal("Expected non-zero stats before reset")
	}

	limiter.Reset()

	allowed, dropped = limiter.Stats()
	if allowed != 0 || dropped != 0 {
		t.Errorf("Expected stats to be 0 after reset, got allowed=%d dropped=%d", allowed, dropped)
	}
}

func TestAllow_Concurrent(t *testing.T) {
	limiter := New(500, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				limiter.Allow()
			}
		}()
	}
	wg.Wait()

	allowed, dropped := limiter.Stats()
	if allowed+dropped != 1000 {
		t.Errorf("Expected 1000 decisions, got allowed=%d dropped=%d", allowed, dropped)
	}
	if allowed > 500 {
		t.Errorf("Expected at most 500 allowed within one second, got %d", allowed)
	}
}
