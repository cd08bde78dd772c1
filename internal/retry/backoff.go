package retry

import (
	"time"

	"github.com/vvka-141/dbretry/pkg/dbretry"
)

// ExponentialBackoff implements whole-unit exponential backoff: unit * 2^n,
// where n is the number of the attempt that just failed, capped at maxExponent.
type ExponentialBackoff struct {
	// unit is the delay for exponent 0 (time.Second by default)
	unit time.Duration

	// maxExponent caps n so the delay stops growing (8 by default, 256 units)
	maxExponent int

	// retryAttempts is the number of attempts allowed beyond the first
	retryAttempts int
}

// BackoffOption is a functional option for configuring ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

// WithUnit sets the base duration multiplied by 2^n.
func WithUnit(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.unit = d
	}
}

// WithMaxExponent lowers the cap on n in 2^n. Values above
// dbretry.MaxBackoffExponent are clamped to it.
func WithMaxExponent(n int) BackoffOption {
	return func(b *ExponentialBackoff) {
		b.maxExponent = n
	}
}

// NewExponentialBackoff creates a backoff strategy that allows retryAttempts
// retries after the first attempt. A negative budget is treated as zero.
//
// Example:
//
//	backoff := retry.NewExponentialBackoff(3,
//	    retry.WithUnit(500 * time.Millisecond),
//	    retry.WithMaxExponent(5),
//	)
func NewExponentialBackoff(retryAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		unit:          dbretry.DefaultBackoffUnit,
		maxExponent:   dbretry.MaxBackoffExponent,
		retryAttempts: max(retryAttempts, 0),
	}

	for _, opt := range opts {
		opt(b)
	}

	b.maxExponent = min(max(b.maxExponent, 0), dbretry.MaxBackoffExponent)

	return b
}

// Delay returns the pause that follows the given failed attempt.
// Attempts below FirstAttempt are treated as the first attempt.
func (b *ExponentialBackoff) Delay(attempt int) time.Duration {
	exponent := min(max(attempt, dbretry.FirstAttempt), b.maxExponent)
	return b.unit * time.Duration(1<<exponent)
}

// RetryAttempts returns the retry budget.
func (b *ExponentialBackoff) RetryAttempts() int {
	return b.retryAttempts
}

// Unit returns the base delay for tests and debugging.
func (b *ExponentialBackoff) Unit() time.Duration {
	return b.unit
}

// MaxExponent returns the exponent cap for tests and debugging.
func (b *ExponentialBackoff) MaxExponent() int {
	return b.maxExponent
}

var _ dbretry.BackoffStrategy = (*ExponentialBackoff)(nil)
