package game

import (
	"sync"
	"time"
)

// Clock is the single cooperative scheduling point (spec.md §4.1). It
// fires a tick every tickRate while running and calls advance(dt); Step
// lets tests drive it deterministically without real sleeps.
type Clock struct {
	mu        sync.Mutex
	tickRate  time.Duration
	advance   func(gameTimeMs int64)
	ticker    *time.Ticker
	stopCh    chan struct{}
	running   bool
	gameTime  int64
}

// NewClock builds a clock with the given nominal tick rate and advance
// callback.
func NewClock(tickRate time.Duration, advance func(gameTimeMs int64)) *Clock {
	return &Clock{tickRate: tickRate, advance: advance}
}

// Start begins firing ticks; a no-op if already running. Guarantees
// monotonic, non-overlapping ticks: a single goroutine calls advance
// synchronously, so one tick completes before the next is handled (spec.md
// §4.1).
func (c *Clock) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.ticker = time.NewTicker(c.tickRate)
	c.stopCh = make(chan struct{})
	ticker := c.ticker
	stopCh := c.stopCh
	c.mu.Unlock()

	go func() {
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				c.mu.Lock()
				c.gameTime += c.tickRate.Milliseconds()
				gt := c.gameTime
				c.mu.Unlock()
				c.advance(gt)
			}
		}
	}()
}

// Stop is idempotent; stop-before-start is a no-op (spec.md §4.1).
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false
	c.ticker.Stop()
	close(c.stopCh)
}

// Step advances the clock by exactly one nominal tick, for deterministic
// tests (spec.md §4.1: "step(dt) for tests").
func (c *Clock) Step() {
	c.mu.Lock()
	c.gameTime += c.tickRate.Milliseconds()
	gt := c.gameTime
	c.mu.Unlock()
	c.advance(gt)
}

// CurrentGameTime returns ms since the clock was last reset.
func (c *Clock) CurrentGameTime() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameTime
}

// Reset zeroes the clock's own gameTime. The engine keeps a separate
// round-relative gameTime and does not call this.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameTime = 0
}

// IsRunning reports whether the clock is currently ticking.
func (c *Clock) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
