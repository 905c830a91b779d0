// Package timeutil paces render frames. Production code ticks on the wall
// clock; tests step a MockClock one frame at a time so playback is
// deterministic.
package timeutil

import (
	"slices"
	"sync"
	"time"
)

// Clock is the frame source a paced player runs on.
type Clock interface {
	Now() time.Time
	// NewTicker delivers one tick per frame interval d.
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers frame ticks. Ticks the reader is too slow to take are
// dropped, the way a display drops frames, rather than queued.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock paces frames on the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// MockClock only moves when a test advances it.
type MockClock struct {
	mu      sync.Mutex
	cond    *sync.Cond
	now     time.Time
	tickers []*MockTicker
}

// NewMockClock returns a clock stopped at start.
func NewMockClock(start time.Time) *MockClock {
	c := &MockClock{now: start}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves time forward by d and ticks every ticker whose next frame
// is now due.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	due := slices.Clone(c.tickers)
	c.mu.Unlock()

	for _, t := range due {
		t.tick(now)
	}
}

// AdvanceFrames calls Advance n times with the given frame interval.
func (c *MockClock) AdvanceFrames(n int, frame time.Duration) {
	for range n {
		c.Advance(frame)
	}
}

func (c *MockClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &MockTicker{
		ch:    make(chan time.Time, 1),
		frame: d,
		next:  c.now.Add(d),
	}
	c.tickers = append(c.tickers, t)
	c.cond.Broadcast()
	return t
}

// BlockUntilTickers waits until n tickers exist, so a test only advances
// time once the code under test is waiting for frames.
func (c *MockClock) BlockUntilTickers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.tickers) < n {
		c.cond.Wait()
	}
}

// MockTicker is the Ticker handed out by MockClock.
type MockTicker struct {
	mu      sync.Mutex
	ch      chan time.Time
	frame   time.Duration
	next    time.Time
	stopped bool
}

func (t *MockTicker) C() <-chan time.Time { return t.ch }

func (t *MockTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *MockTicker) tick(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || now.Before(t.next) {
		return
	}
	select {
	case t.ch <- now:
	default: // reader is behind; drop the frame
	}
	t.next = now.Add(t.frame)
}
