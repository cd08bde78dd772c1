package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vvka-141/dbretry/internal/retry"
	"github.com/vvka-141/dbretry/pkg/dbretry"
)

// Retrier runs database/sql operations under a retry policy.
// Every operation comes in a blocking form and a context-aware form; both
// share the executor's attempt and backoff rules.
//
// Thread-Safety: safe for concurrent use. The sessions and openers passed in
// are not synchronized by the Retrier.
type Retrier struct {
	executor *retry.Executor
}

// NewRetrier creates a Retrier with the given retry budget and the default
// 2^n-second backoff.
func NewRetrier(retryAttempts int, opts ...retry.BackoffOption) *Retrier {
	return NewRetrierWithExecutor(retry.NewExecutor(retry.NewExponentialBackoff(retryAttempts, opts...)))
}

// NewRetrierWithExecutor creates a Retrier around a preconfigured executor.
// Panics if executor is nil.
func NewRetrierWithExecutor(executor *retry.Executor) *Retrier {
	if executor == nil {
		panic("executor cannot be nil")
	}
	return &Retrier{executor: executor}
}

// Executor returns the underlying retry executor.
func (r *Retrier) Executor() *retry.Executor {
	return r.executor
}

// QueryWithRetry runs a query that returns rows, retrying on failure.
// The caller must close the returned rows.
func (r *Retrier) QueryWithRetry(s dbretry.Session, query string, args ...any) (*sql.Rows, error) {
	return retry.DoBlocking(r.executor, func() (*sql.Rows, error) {
		return s.Query(query, args...)
	})
}

// QueryWithRetryContext is the cancellable form of QueryWithRetry.
func (r *Retrier) QueryWithRetryContext(ctx context.Context, s dbretry.Session, query string, args ...any) (*sql.Rows, error) {
	return retry.Do(ctx, r.executor, func(ctx context.Context) (*sql.Rows, error) {
		return s.QueryContext(ctx, query, args...)
	})
}

// ExecWithRetry runs a statement, retrying on failure, and returns the number
// of rows affected. Reading the count is not retried.
func (r *Retrier) ExecWithRetry(s dbretry.Session, query string, args ...any) (int64, error) {
	result, err := retry.DoBlocking(r.executor, func() (sql.Result, error) {
		return s.Exec(query, args...)
	})
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ExecWithRetryContext is the cancellable form of ExecWithRetry.
func (r *Retrier) ExecWithRetryContext(ctx context.Context, s dbretry.Session, query string, args ...any) (int64, error) {
	result, err := retry.Do(ctx, r.executor, func(ctx context.Context) (sql.Result, error) {
		return s.ExecContext(ctx, query, args...)
	})
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ScalarWithRetry returns the first column of the first row, retrying on failure.
// The result is nil when the query returns no rows or the value is NULL.
func (r *Retrier) ScalarWithRetry(s dbretry.Session, query string, args ...any) (any, error) {
	return retry.DoBlocking(r.executor, func() (any, error) {
		return scanScalar(s.QueryRow(query, args...))
	})
}

// ScalarWithRetryContext is the cancellable form of ScalarWithRetry.
func (r *Retrier) ScalarWithRetryContext(ctx context.Context, s dbretry.Session, query string, args ...any) (any, error) {
	return retry.Do(ctx, r.executor, func(ctx context.Context) (any, error) {
		return scanScalar(s.QueryRowContext(ctx, query, args...))
	})
}

// ScalarAs is the typed form of ScalarWithRetryContext. An absent value is
// reported as an invalid sql.Null.
func ScalarAs[T any](ctx context.Context, r *Retrier, s dbretry.Session, query string, args ...any) (sql.Null[T], error) {
	return retry.Do(ctx, r.executor, func(ctx context.Context) (sql.Null[T], error) {
		var value sql.Null[T]
		err := s.QueryRowContext(ctx, query, args...).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return sql.Null[T]{}, nil
		}
		return value, err
	})
}

// EnsureOpenWithRetry opens the connection unless it is already open,
// retrying on failure. A connection that is already open consumes no budget.
func (r *Retrier) EnsureOpenWithRetry(o dbretry.Opener) error {
	if o.State() == dbretry.StateOpen {
		return nil
	}
	return r.executor.ExecuteBlocking(func() error {
		return o.Open(context.Background())
	})
}

// EnsureOpenWithRetryContext is the cancellable form of EnsureOpenWithRetry.
func (r *Retrier) EnsureOpenWithRetryContext(ctx context.Context, o dbretry.Opener) error {
	if o.State() == dbretry.StateOpen {
		return nil
	}
	return r.executor.Execute(ctx, o.Open)
}

// EnsureOpen opens the connection unless it is already open, without retrying.
func EnsureOpen(ctx context.Context, o dbretry.Opener) error {
	return NewRetrier(0).EnsureOpenWithRetryContext(ctx, o)
}

func scanScalar(row *sql.Row) (any, error) {
	var value any
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}
