// Package retry provides the retry policy shared by every database operation:
// bounded attempts with exponential whole-second backoff.
//
// An operation is tried once and then retried up to RetryAttempts() more times.
// The pause after failed attempt n is unit * 2^min(n, 8), so the pause before
// attempt k is 2^min(k-1, 8) seconds by default and never exceeds 256 seconds.
// Any failure is retried; the failure of the last permitted attempt is returned
// as-is.
//
// # Example Usage
//
//	strategy := retry.NewExponentialBackoff(2)
//	executor := retry.NewExecutor(strategy)
//
//	rows, err := retry.Do(ctx, executor, func(ctx context.Context) (*sql.Rows, error) {
//	    return db.QueryContext(ctx, "SELECT 1")
//	})
//
// # Execution Modes
//
// Execute and Do wait on a timer and the context, so cancellation stops the
// policy at the next attempt or pause and returns ctx.Err(). ExecuteBlocking
// and DoBlocking sleep on the calling goroutine and are not cancellable.
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. Each call owns its attempt
// counter and delay timeline.
package retry
