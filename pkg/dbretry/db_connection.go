package dbretry

import (
	"context"
	"database/sql"
)

// Session abstracts the database/sql operations wrapped by the retry layer.
// Both the blocking and the context-aware variants are required so that a
// single value serves both execution modes.
//
// Satisfied by *sql.DB, *sql.Tx, *sqlx.DB and *sqlx.Tx.
type Session interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)

	QueryRow(query string, args ...any) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ConnState describes whether a connection is ready for use.
type ConnState int

const (
	StateClosed ConnState = iota
	StateOpen
)

// String returns a human-readable representation of the state.
func (s ConnState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Opener is a connection that can report its readiness and be opened.
//
// Thread-Safety: implementations are not required to be safe for concurrent
// use. Callers sharing one Opener across goroutines must serialize access.
type Opener interface {
	// State reports whether the connection is already established.
	State() ConnState

	// Open establishes the connection.
	Open(ctx context.Context) error
}
