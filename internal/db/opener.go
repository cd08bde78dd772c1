package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/dbretry/pkg/dbretry"
)

// SQLConn holds a dedicated *sql.Conn taken from a pool.
// Not safe for concurrent use.
type SQLConn struct {
	pool *sql.DB
	conn *sql.Conn
}

// NewSQLConn creates a closed SQLConn over the given pool.
func NewSQLConn(pool *sql.DB) *SQLConn {
	return &SQLConn{pool: pool}
}

// State reports StateOpen once a connection has been acquired.
func (c *SQLConn) State() dbretry.ConnState {
	if c.conn == nil {
		return dbretry.StateClosed
	}
	return dbretry.StateOpen
}

// Open acquires a connection from the pool and verifies it with a ping.
func (c *SQLConn) Open(ctx context.Context) error {
	conn, err := c.pool.Conn(ctx)
	if err != nil {
		return err
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return err
	}
	c.conn = conn
	return nil
}

// Conn returns the acquired connection, or nil while closed.
func (c *SQLConn) Conn() *sql.Conn {
	return c.conn
}

// Close returns the connection to the pool.
func (c *SQLConn) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// PgxConn is a native pgx connection opened on demand.
// Not safe for concurrent use.
type PgxConn struct {
	config *pgx.ConnConfig
	conn   *pgx.Conn
}

// NewPgxConn creates a closed PgxConn from a pgx connection string.
func NewPgxConn(connString string) (*PgxConn, error) {
	config, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	return &PgxConn{config: config}, nil
}

// State reports StateOpen while the underlying connection is alive.
func (c *PgxConn) State() dbretry.ConnState {
	if c.conn == nil || c.conn.IsClosed() {
		return dbretry.StateClosed
	}
	return dbretry.StateOpen
}

// Open connects to the server.
func (c *PgxConn) Open(ctx context.Context) error {
	conn, err := pgx.ConnectConfig(ctx, c.config)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

// Conn returns the open connection, or nil while closed.
func (c *PgxConn) Conn() *pgx.Conn {
	return c.conn
}

// Close terminates the connection.
func (c *PgxConn) Close(ctx context.Context) error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close(ctx)
	c.conn = nil
	return err
}

var (
	_ dbretry.Opener = (*SQLConn)(nil)
	_ dbretry.Opener = (*PgxConn)(nil)
)
