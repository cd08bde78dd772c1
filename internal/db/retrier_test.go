package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/dbretry/internal/db"
	"github.com/vvka-141/dbretry/internal/retry"
	"github.com/vvka-141/dbretry/internal/retry/retrytest"
	testhelpers "github.com/vvka-141/dbretry/internal/testing"
	"github.com/vvka-141/dbretry/pkg/dbretry"
)

var errUnavailable = errors.New("database is locked")

// flakySession fails its first `failures` calls before delegating to a real session.
// QueryRow cannot carry an injected error, so its failures run an invalid query instead.
type flakySession struct {
	dbretry.Session
	failures int
	calls    int
}

func (f *flakySession) fail() bool {
	f.calls++
	return f.calls <= f.failures
}

func (f *flakySession) Query(query string, args ...any) (*sql.Rows, error) {
	if f.fail() {
		return nil, errUnavailable
	}
	return f.Session.Query(query, args...)
}

func (f *flakySession) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if f.fail() {
		return nil, errUnavailable
	}
	return f.Session.QueryContext(ctx, query, args...)
}

func (f *flakySession) Exec(query string, args ...any) (sql.Result, error) {
	if f.fail() {
		return nil, errUnavailable
	}
	return f.Session.Exec(query, args...)
}

func (f *flakySession) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.fail() {
		return nil, errUnavailable
	}
	return f.Session.ExecContext(ctx, query, args...)
}

func (f *flakySession) QueryRow(query string, args ...any) *sql.Row {
	if f.fail() {
		return f.Session.QueryRow("SELECT no_such_column")
	}
	return f.Session.QueryRow(query, args...)
}

func (f *flakySession) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	if f.fail() {
		return f.Session.QueryRowContext(ctx, "SELECT no_such_column")
	}
	return f.Session.QueryRowContext(ctx, query, args...)
}

// fakeOpener records Open calls and fails the first `failures` of them.
type fakeOpener struct {
	state    dbretry.ConnState
	failures int
	opens    int
	err      error
}

func (o *fakeOpener) State() dbretry.ConnState { return o.state }

func (o *fakeOpener) Open(ctx context.Context) error {
	o.opens++
	if o.opens <= o.failures {
		if o.err != nil {
			return o.err
		}
		return errUnavailable
	}
	o.state = dbretry.StateOpen
	return nil
}

func newTestRetrier(retryAttempts int) (*db.Retrier, *retrytest.FakeClock) {
	clock := retrytest.NewFakeClock()
	executor := retry.NewExecutor(retry.NewExponentialBackoff(retryAttempts)).WithClock(clock)
	return db.NewRetrierWithExecutor(executor), clock
}

func seedNumbers(t *testing.T, s dbretry.Session) {
	t.Helper()
	_, err := s.Exec(`CREATE TABLE numbers (n INTEGER, label TEXT)`)
	require.NoError(t, err)
	_, err = s.Exec(`INSERT INTO numbers (n, label) VALUES (1, 'one'), (2, NULL), (3, 'three')`)
	require.NoError(t, err)
}

func TestQueryWithRetry_RecoversAfterFailures(t *testing.T) {
	pool := testhelpers.OpenMemoryDB(t)
	seedNumbers(t, pool)

	retrier, clock := newTestRetrier(2)
	session := &flakySession{Session: pool, failures: 2}

	rows, err := retrier.QueryWithRetry(session, `SELECT n FROM numbers ORDER BY n`)
	require.NoError(t, err)
	defer rows.Close()

	var got []int
	for rows.Next() {
		var n int
		require.NoError(t, rows.Scan(&n))
		got = append(got, n)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 3, session.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, clock.Delays())
}

func TestQueryWithRetryContext_ExhaustedReturnsOriginalError(t *testing.T) {
	pool := testhelpers.OpenMemoryDB(t)

	retrier, clock := newTestRetrier(3)
	session := &flakySession{Session: pool, failures: 100}

	rows, err := retrier.QueryWithRetryContext(context.Background(), session, `SELECT 1`)

	assert.Nil(t, rows)
	assert.Same(t, errUnavailable, err)
	assert.Equal(t, 4, session.calls)
	assert.Len(t, clock.Delays(), 3)
}

func TestExecWithRetry_ReturnsRowsAffected(t *testing.T) {
	pool := testhelpers.OpenMemoryDB(t)
	seedNumbers(t, pool)

	retrier, _ := newTestRetrier(1)
	session := &flakySession{Session: pool, failures: 1}

	affected, err := retrier.ExecWithRetry(session, `UPDATE numbers SET label = 'x' WHERE n >= ?`, 2)

	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	assert.Equal(t, 2, session.calls)
}

func TestExecWithRetryContext_NoRetryBudget(t *testing.T) {
	pool := testhelpers.OpenMemoryDB(t)

	retrier, clock := newTestRetrier(0)
	session := &flakySession{Session: pool, failures: 1}

	affected, err := retrier.ExecWithRetryContext(context.Background(), session, `CREATE TABLE t (id INTEGER)`)

	assert.Same(t, errUnavailable, err)
	assert.Zero(t, affected)
	assert.Equal(t, 1, session.calls)
	assert.Empty(t, clock.Delays())
}

func TestExecWithRetryContext_StatementErrorSurfacesUnchanged(t *testing.T) {
	pool := testhelpers.OpenMemoryDB(t)

	retrier, _ := newTestRetrier(1)
	_, directErr := pool.Exec(`INSERT INTO missing_table VALUES (1)`)
	require.Error(t, directErr)

	_, err := retrier.ExecWithRetryContext(context.Background(), pool, `INSERT INTO missing_table VALUES (1)`)

	require.Error(t, err)
	assert.Equal(t, directErr.Error(), err.Error(), "retry must not alter the failure")
}

func TestScalarWithRetry(t *testing.T) {
	pool := testhelpers.OpenMemoryDB(t)
	seedNumbers(t, pool)

	tests := []struct {
		name  string
		query string
		args  []any
		want  any
	}{
		{"value", `SELECT n FROM numbers WHERE label = ?`, []any{"three"}, int64(3)},
		{"null value", `SELECT label FROM numbers WHERE n = ?`, []any{2}, nil},
		{"no rows", `SELECT n FROM numbers WHERE n > ?`, []any{100}, nil},
		{"literal", `SELECT 42`, nil, int64(42)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retrier, _ := newTestRetrier(1)

			got, err := retrier.ScalarWithRetry(pool, tt.query, tt.args...)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScalarWithRetryContext_RecoversAfterFailures(t *testing.T) {
	pool := testhelpers.OpenMemoryDB(t)

	retrier, clock := newTestRetrier(2)
	session := &flakySession{Session: pool, failures: 2}

	got, err := retrier.ScalarWithRetryContext(context.Background(), session, `SELECT 42`)

	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
	assert.Equal(t, 3, session.calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, clock.Delays())
}

func TestScalarAs(t *testing.T) {
	pool := testhelpers.OpenMemoryDB(t)
	seedNumbers(t, pool)
	retrier, _ := newTestRetrier(1)
	ctx := context.Background()

	label, err := db.ScalarAs[string](ctx, retrier, pool, `SELECT label FROM numbers WHERE n = 1`)
	require.NoError(t, err)
	assert.True(t, label.Valid)
	assert.Equal(t, "one", label.V)

	missing, err := db.ScalarAs[string](ctx, retrier, pool, `SELECT label FROM numbers WHERE n = 2`)
	require.NoError(t, err)
	assert.False(t, missing.Valid)

	none, err := db.ScalarAs[int64](ctx, retrier, pool, `SELECT n FROM numbers WHERE n = 99`)
	require.NoError(t, err)
	assert.False(t, none.Valid)
}

func TestEnsureOpenWithRetry_AlreadyOpenShortCircuits(t *testing.T) {
	for _, retries := range []int{0, 1, 10} {
		retrier, clock := newTestRetrier(retries)
		opener := &fakeOpener{state: dbretry.StateOpen}

		require.NoError(t, retrier.EnsureOpenWithRetry(opener))
		require.NoError(t, retrier.EnsureOpenWithRetryContext(context.Background(), opener))

		assert.Zero(t, opener.opens, "retries=%d", retries)
		assert.Empty(t, clock.Delays())
	}
}

func TestEnsureOpenWithRetry_RecoversAfterFailures(t *testing.T) {
	retrier, clock := newTestRetrier(3)
	opener := &fakeOpener{failures: 2}

	err := retrier.EnsureOpenWithRetry(opener)

	require.NoError(t, err)
	assert.Equal(t, 3, opener.opens)
	assert.Equal(t, dbretry.StateOpen, opener.State())
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, clock.Delays())
}

func TestEnsureOpenWithRetryContext_Exhausted(t *testing.T) {
	openErr := errors.New("dial tcp 127.0.0.1:5432: connection refused")
	retrier, _ := newTestRetrier(2)
	opener := &fakeOpener{failures: 100, err: openErr}

	err := retrier.EnsureOpenWithRetryContext(context.Background(), opener)

	assert.Same(t, openErr, err)
	assert.Equal(t, 3, opener.opens)
}

func TestEnsureOpenWithRetryContext_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := retrytest.NewFakeClock()
	clock.Hold = func(wait int) bool {
		cancel()
		return true
	}
	retrier := db.NewRetrierWithExecutor(retry.NewExecutor(retry.NewExponentialBackoff(5)).WithClock(clock))
	opener := &fakeOpener{failures: 100}

	err := retrier.EnsureOpenWithRetryContext(ctx, opener)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, opener.opens)
}

func TestEnsureOpen_DoesNotRetry(t *testing.T) {
	opener := &fakeOpener{failures: 1}

	err := db.EnsureOpen(context.Background(), opener)

	assert.Same(t, errUnavailable, err)
	assert.Equal(t, 1, opener.opens)
}

func TestSQLConn_OpenAndClose(t *testing.T) {
	pool := testhelpers.OpenMemoryDB(t)
	conn := db.NewSQLConn(pool.DB)

	assert.Equal(t, dbretry.StateClosed, conn.State())
	assert.Nil(t, conn.Conn())

	retrier, _ := newTestRetrier(1)
	require.NoError(t, retrier.EnsureOpenWithRetryContext(context.Background(), conn))
	assert.Equal(t, dbretry.StateOpen, conn.State())
	require.NotNil(t, conn.Conn())

	var one int
	require.NoError(t, conn.Conn().QueryRowContext(context.Background(), `SELECT 1`).Scan(&one))
	assert.Equal(t, 1, one)

	require.NoError(t, conn.Close())
	assert.Equal(t, dbretry.StateClosed, conn.State())
	require.NoError(t, conn.Close(), "closing twice is a no-op")
}

func TestNewRetrier_DefaultPolicy(t *testing.T) {
	retrier := db.NewRetrier(dbretry.DefaultRetryAttempts)

	strategy := retrier.Executor().Strategy()
	assert.Equal(t, 1, strategy.RetryAttempts())
	assert.Equal(t, 2*time.Second, strategy.Delay(1))
}

func TestNewRetrierWithExecutor_NilPanics(t *testing.T) {
	assert.Panics(t, func() { db.NewRetrierWithExecutor(nil) })
}
