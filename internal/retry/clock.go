package retry

import "time"

// Clock is the timing primitive used between attempts.
type Clock interface {
	// Sleep blocks the calling goroutine for d.
	Sleep(d time.Duration)

	// NewTimer returns a timer that fires once after d.
	NewTimer(d time.Duration) Timer
}

// Timer is the subset of *time.Timer the executor needs.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Sleep calls time.Sleep.
func (SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// NewTimer wraps time.NewTimer.
func (SystemClock) NewTimer(d time.Duration) Timer {
	return systemTimer{t: time.NewTimer(d)}
}

type systemTimer struct {
	t *time.Timer
}

func (s systemTimer) C() <-chan time.Time { return s.t.C }
func (s systemTimer) Stop() bool         { return s.t.Stop() }
