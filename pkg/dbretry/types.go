package dbretry

import (
	"errors"
	"fmt"
	"time"
)

// ConnectionConfig identifies the database and pool used by a command.
type ConnectionConfig struct {
	// Driver is the database/sql driver name: "pgx", "postgres" or "sqlite3".
	Driver string

	// DSN is passed to the driver unchanged.
	DSN string

	// Pool limits; zero means DefaultMaxOpenConns / DefaultMaxIdleConns.
	MaxOpenConns int
	MaxIdleConns int
}

// Validate checks if the ConnectionConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *ConnectionConfig) Validate() error {
	var errs []error

	if c.Driver == "" {
		errs = append(errs, fmt.Errorf("Driver is required: %w", ErrInvalidConfig))
	}

	if c.DSN == "" {
		errs = append(errs, fmt.Errorf("DSN is required: %w", ErrInvalidConfig))
	}

	if c.MaxOpenConns < 0 {
		errs = append(errs, fmt.Errorf("MaxOpenConns cannot be negative: %w", ErrInvalidConfig))
	}

	if c.MaxIdleConns < 0 {
		errs = append(errs, fmt.Errorf("MaxIdleConns cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// RetryConfig holds the tunables of the retry policy.
type RetryConfig struct {
	// Attempts is the retry budget: attempts allowed beyond the first.
	Attempts int

	// MaxExponent caps n in the 2^n backoff; zero means MaxBackoffExponent.
	MaxExponent int

	// Timeout bounds the whole command including backoff; zero means no bound.
	Timeout time.Duration
}

// DefaultRetryConfig returns the policy used when nothing is configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:    DefaultRetryAttempts,
		MaxExponent: MaxBackoffExponent,
	}
}

// Validate checks the retry tunables.
func (c *RetryConfig) Validate() error {
	var errs []error

	if c.Attempts < 0 {
		errs = append(errs, fmt.Errorf("retry attempts cannot be negative: %w", ErrInvalidConfig))
	}

	if c.MaxExponent < 0 || c.MaxExponent > MaxBackoffExponent {
		errs = append(errs, fmt.Errorf("max exponent must be between 0 and %d: %w", MaxBackoffExponent, ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}
