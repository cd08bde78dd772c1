package db

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// IsConnectionError reports whether err means the database could not be
// reached, as opposed to a statement being rejected. It is applied to the
// error a retry operation finally surfaced, to pick a command exit code; it
// plays no part in deciding whether to retry.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	// PostgreSQL error codes: https://www.postgresql.org/docs/current/errcodes-appendix.html
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"): // Connection Exception
			return true
		case strings.HasPrefix(pgErr.Code, "57"): // Operator Intervention
			return true
		case pgErr.Code == "53300": // too_many_connections
			return true
		}
		return false
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	if isNetworkError(err) {
		return true
	}

	return hasConnectionMessage(err)
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH)
}

// hasConnectionMessage matches drivers that only report failures as text (lib/pq, sqlite).
func hasConnectionMessage(err error) bool {
	errMsg := strings.ToLower(err.Error())

	patterns := []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"broken pipe",
		"too many connections",
		"server closed the connection",
		"bad connection",
		"unable to open database file",
	}

	for _, pattern := range patterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}
