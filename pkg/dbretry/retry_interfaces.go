package dbretry

import "time"

// BackoffStrategy calculates the delay before the next retry attempt.
type BackoffStrategy interface {
	// Delay returns the duration to wait after the given attempt failed.
	// attempt is one-based (1 = the initial attempt, 2 = the first retry, etc.)
	Delay(attempt int) time.Duration

	// RetryAttempts returns the number of attempts allowed beyond the first.
	RetryAttempts() int
}
