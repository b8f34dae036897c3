package clock

import (
	"sync"
	"time"
)

// Fake is a Clock for tests. Every After call advances the fake time by the
// requested duration and fires immediately, unless the clock is held, in which
// case the channel fires only on Release.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waits   []time.Duration
	held    bool
	pending []chan time.Time
	waitCh  chan struct{}
}

// NewFake creates a Fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start, waitCh: make(chan struct{}, 64)}
}

// Now returns the current fake time.
func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Since returns the fake duration since t.
func (c *Fake) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// After records d and returns a channel that fires once the wait completes.
func (c *Fake) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)

	c.mu.Lock()
	c.waits = append(c.waits, d)
	if c.held {
		c.pending = append(c.pending, ch)
	} else {
		c.now = c.now.Add(d)
		ch <- c.now
	}
	c.mu.Unlock()

	select {
	case c.waitCh <- struct{}{}:
	default:
	}
	return ch
}

// Hold makes subsequent After calls block until Release.
func (c *Fake) Hold() {
	c.mu.Lock()
	c.held = true
	c.mu.Unlock()
}

// Release fires every pending wait and stops holding.
func (c *Fake) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.held = false
	for i, ch := range c.pending {
		c.now = c.now.Add(c.waits[len(c.waits)-len(c.pending)+i])
		ch <- c.now
	}
	c.pending = nil
}

// Waited returns a channel that receives once per After call.
func (c *Fake) Waited() <-chan struct{} {
	return c.waitCh
}

// Waits returns every duration passed to After, in call order.
func (c *Fake) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.waits))
	copy(out, c.waits)
	return out
}
