package retry

import (
	"context"
	"time"

	"github.com/vvka-141/dbretry/pkg/dbretry"
)

// Executor runs an operation until it succeeds or the retry budget of its
// strategy is spent, pausing between attempts.
//
// Thread Safety:
// The Executor holds no per-invocation state and is safe for concurrent use.
// WithOnRetry() and WithClock() return NEW instances; the original is unchanged.
type Executor struct {
	strategy dbretry.BackoffStrategy
	clock    Clock
	onRetry  func(attempt int, delay time.Duration)
}

// NewExecutor creates a new retry executor using the given strategy and the system clock.
// Panics if strategy is nil.
func NewExecutor(strategy dbretry.BackoffStrategy) *Executor {
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		strategy: strategy,
		clock:    SystemClock{},
	}
}

// WithOnRetry returns a new Executor that calls callback before each backoff
// pause with the number of the attempt that failed and the pause duration.
// The failure itself is not passed on.
//
// Example:
//
//	executor := retry.NewExecutor(strategy).WithOnRetry(func(attempt int, delay time.Duration) {
//	    logger.Verbose("attempt %d failed, retrying in %s", attempt, delay)
//	})
func (e *Executor) WithOnRetry(callback func(attempt int, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// WithClock returns a new Executor that waits using the given clock.
func (e *Executor) WithClock(clock Clock) *Executor {
	clone := *e
	clone.clock = clock
	return &clone
}

// Strategy returns the backoff strategy.
func (e *Executor) Strategy() dbretry.BackoffStrategy {
	return e.strategy
}

// Execute runs the operation with retry logic, suspending between attempts
// without holding a goroutine blocked on anything but ctx and a timer.
//
// If ctx is cancelled while the operation runs or while waiting, no further
// attempt is made and ctx.Err() is returned. Otherwise the error of the last
// attempt is returned unchanged.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	return e.run(ctx, operation, e.wait)
}

// ExecuteBlocking runs the operation with retry logic, sleeping on the calling
// goroutine between attempts. It cannot be cancelled.
func (e *Executor) ExecuteBlocking(operation func() error) error {
	return e.run(context.Background(), func(context.Context) error {
		return operation()
	}, e.sleep)
}

func (e *Executor) run(
	ctx context.Context,
	operation func(ctx context.Context) error,
	wait func(ctx context.Context, delay time.Duration) error,
) error {
	retryAttempts := e.strategy.RetryAttempts()

	for attempt := dbretry.FirstAttempt; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr := operation(ctx)
		if lastErr == nil {
			return nil
		}

		// Cancellation wins over the failure it may have caused
		if err := ctx.Err(); err != nil {
			return err
		}

		if attempt > retryAttempts {
			return lastErr
		}

		delay := e.strategy.Delay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, delay)
		}

		if err := wait(ctx, delay); err != nil {
			return err
		}
	}
}

func (e *Executor) wait(ctx context.Context, delay time.Duration) error {
	timer := e.clock.NewTimer(delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}

func (e *Executor) sleep(_ context.Context, delay time.Duration) error {
	e.clock.Sleep(delay)
	return nil
}

// Do runs an operation that produces a value with Executor.Execute semantics.
// On failure the zero value of T is returned.
func Do[T any](ctx context.Context, e *Executor, operation func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = operation(ctx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// DoBlocking runs an operation that produces a value with Executor.ExecuteBlocking semantics.
func DoBlocking[T any](e *Executor, operation func() (T, error)) (T, error) {
	var result T
	err := e.ExecuteBlocking(func() error {
		var err error
		result, err = operation()
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
