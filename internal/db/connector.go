package db

import (
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // registers "postgres"
	"github.com/vvka-141/dbretry/pkg/dbretry"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Supported database/sql driver names.
const (
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// DefaultConnMaxIdleTime releases idle pooled connections between commands.
const DefaultConnMaxIdleTime = 5 * time.Minute

// SupportedDrivers lists the drivers accepted by OpenDB.
func SupportedDrivers() []string {
	return []string{DriverPgx, DriverPostgres, DriverSQLite}
}

// NoticeHandler receives NOTICE and WARNING messages sent by a PostgreSQL server.
type NoticeHandler func(severity, message string)

type openOptions struct {
	onNotice NoticeHandler
}

// OpenOption configures OpenDB.
type OpenOption func(*openOptions)

// WithNoticeHandler forwards server notices to h. Ignored for sqlite3.
func WithNoticeHandler(h NoticeHandler) OpenOption {
	return func(o *openOptions) {
		o.onNotice = h
	}
}

// OpenDB creates a connection pool for the configured driver.
// No connection is made; use an Opener from NewOpener to establish one with retry.
func OpenDB(config *dbretry.ConnectionConfig, opts ...OpenOption) (*sqlx.DB, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if !slices.Contains(SupportedDrivers(), config.Driver) {
		return nil, fmt.Errorf("%q (supported: %s): %w",
			config.Driver, strings.Join(SupportedDrivers(), ", "), dbretry.ErrUnsupportedDriver)
	}

	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}

	db, err := openPool(config, o)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s pool: %w", config.Driver, err)
	}

	configurePool(db, config)
	return db, nil
}

func openPool(config *dbretry.ConnectionConfig, o openOptions) (*sqlx.DB, error) {
	if o.onNotice == nil {
		return sqlx.Open(config.Driver, config.DSN)
	}

	switch config.Driver {
	case DriverPgx:
		connConfig, err := pgx.ParseConfig(config.DSN)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", dbretry.ErrInvalidConfig, err)
		}
		connConfig.OnNotice = func(_ *pgconn.PgConn, n *pgconn.Notice) {
			o.onNotice(n.Severity, n.Message)
		}
		return sqlx.NewDb(stdlib.OpenDB(*connConfig), DriverPgx), nil

	case DriverPostgres:
		connector, err := pq.NewConnector(config.DSN)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", dbretry.ErrInvalidConfig, err)
		}
		withNotices := pq.ConnectorWithNoticeHandler(connector, func(n *pq.Error) {
			o.onNotice(n.Severity, n.Message)
		})
		return sqlx.NewDb(sql.OpenDB(withNotices), DriverPostgres), nil

	default:
		return sqlx.Open(config.Driver, config.DSN)
	}
}

func configurePool(db *sqlx.DB, config *dbretry.ConnectionConfig) {
	maxOpen := config.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = dbretry.DefaultMaxOpenConns
	}
	maxIdle := config.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = dbretry.DefaultMaxIdleConns
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxIdleTime(DefaultConnMaxIdleTime)
}

// NewOpener returns the Opener used to establish the first connection.
// The pgx driver is opened natively; other drivers take a connection from db.
func NewOpener(config *dbretry.ConnectionConfig, db *sqlx.DB) (dbretry.Opener, error) {
	if config.Driver == DriverPgx {
		return NewPgxConn(config.DSN)
	}
	return NewSQLConn(db.DB), nil
}

// WrapConnectionError wraps a connection failure with actionable guidance.
// The original error stays reachable through errors.Is / errors.As.
func WrapConnectionError(err error, driver string) error {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`%w: connection refused

Possible causes:
  - The database server is not running
  - Wrong host or port in the DSN
  - Firewall blocking the connection

Original error: %w`, dbretry.ErrConnectionFailed, err)

	case strings.Contains(errStr, "no such host"):
		return fmt.Errorf(`%w: cannot resolve host

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable

Original error: %w`, dbretry.ErrConnectionFailed, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`%w: password authentication failed

Possible causes:
  - Wrong password or username in the DSN
  - User does not have access to the database

Original error: %w`, dbretry.ErrConnectionFailed, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`%w: connection timed out

Possible causes:
  - Server is overloaded or unresponsive
  - Network latency or packet loss
  - Increase --retries to wait longer between attempts

Original error: %w`, dbretry.ErrConnectionFailed, err)

	case strings.Contains(errStr, "too many connections"):
		return fmt.Errorf(`%w: too many connections

Possible causes:
  - max_connections limit reached on the server
  - Stale connections from previous runs

Original error: %w`, dbretry.ErrConnectionFailed, err)

	default:
		return fmt.Errorf("%w: %s: %w", dbretry.ErrConnectionFailed, driver, err)
	}
}
