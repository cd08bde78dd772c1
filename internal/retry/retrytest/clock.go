// Package retrytest provides a deterministic Clock for exercising retry policies
// without real waiting.
package retrytest

import (
	"sync"
	"time"

	"github.com/vvka-141/dbretry/internal/retry"
)

// FakeClock records every requested pause and returns immediately.
// Safe for concurrent use.
type FakeClock struct {
	// Hold, when set, is called with the 1-based index of each timer-based
	// wait. Returning true makes that timer never fire, leaving the executor
	// to be released by context cancellation.
	Hold func(wait int) bool

	mu     sync.Mutex
	delays []time.Duration
}

// NewFakeClock creates a clock that never blocks.
func NewFakeClock() *FakeClock {
	return &FakeClock{}
}

// Sleep records d.
func (c *FakeClock) Sleep(d time.Duration) {
	c.record(d)
}

// NewTimer records d and returns a timer that has already fired,
// unless Hold asks for it to be held.
func (c *FakeClock) NewTimer(d time.Duration) retry.Timer {
	n := c.record(d)
	if c.Hold != nil && c.Hold(n) {
		return &fakeTimer{ch: make(chan time.Time)}
	}
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return &fakeTimer{ch: ch}
}

// Delays returns a copy of the recorded pauses in order.
func (c *FakeClock) Delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.delays...)
}

// Total returns the sum of the recorded pauses.
func (c *FakeClock) Total() time.Duration {
	var total time.Duration
	for _, d := range c.Delays() {
		total += d
	}
	return total
}

func (c *FakeClock) record(d time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delays = append(c.delays, d)
	return len(c.delays)
}

type fakeTimer struct {
	ch chan time.Time
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }
func (t *fakeTimer) Stop() bool         { return true }

var _ retry.Clock = (*FakeClock)(nil)
