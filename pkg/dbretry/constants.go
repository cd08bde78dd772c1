package dbretry

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0   // Command completed successfully
	ExitGeneralError    = 1   // Unknown or unclassified error
	ExitUsageError      = 2   // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3   // Internal panic (unexpected crash)
	ExitConfigError     = 10  // Invalid configuration or parameters
	ExitConnectionError = 11  // Failed to connect to database
	ExitExecutionFailed = 13  // SQL execution failed
	ExitCancelled       = 130 // Interrupted or timed out before completion
)

const (
	// DefaultRetryAttempts is the default retry budget: try once, retry once on failure.
	DefaultRetryAttempts = 1

	// FirstAttempt is the number of the initial, non-retry attempt.
	FirstAttempt = 1

	// MaxBackoffExponent caps the exponent of the 2^n backoff formula.
	// With DefaultBackoffUnit the longest single delay is 256 seconds.
	MaxBackoffExponent = 8

	// DefaultBackoffUnit is the duration multiplied by 2^n to produce a delay.
	DefaultBackoffUnit = time.Second

	// DefaultMaxOpenConns limits the connection pool opened by the CLI.
	DefaultMaxOpenConns = 5

	// DefaultMaxIdleConns keeps a warm connection between commands.
	DefaultMaxIdleConns = 1

	// DefaultConfigFileName is the project configuration file looked up in the working directory.
	DefaultConfigFileName = "dbretry.yaml"
)
