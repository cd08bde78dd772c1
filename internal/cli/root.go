package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/dbretry/internal/retry"
)

var rootCmd = &cobra.Command{
	Use:   "dbretry",
	Short: "Run database operations with bounded exponential-backoff retries",
	Long: `dbretry runs a single query, statement or connection check against a database,
retrying failed attempts with whole-second exponential backoff
(2s, 4s, 8s ... capped at 256s) before surfacing the last error.

Connection settings are resolved from flags, then DBRETRY_DSN / DATABASE_URL /
DBRETRY_DRIVER, then dbretry.yaml in the working directory.

Exit Codes:
  0   - Success
  1   - General error
  2   - CLI usage error (invalid arguments or flags)
  3   - Panic or unexpected system error
  10  - Invalid configuration
  11  - Database connection failed
  13  - SQL execution failed
  130 - Cancelled or timed out`,
	SilenceUsage: true,
}

// globalFlags holds values bound to the root persistent flags.
type globalFlags struct {
	verbose    bool
	configPath string
	driver     string
	dsn        string
	retries    int
	timeout    time.Duration
}

var flags globalFlags

// clock paces retries of every command. Tests replace it.
var clock retry.Clock = retry.SystemClock{}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output, including each backoff")
	pf.StringVar(&flags.configPath, "config", "", "Path to a config file (default ./dbretry.yaml)")
	pf.StringVar(&flags.driver, "driver", "", "Database driver: pgx, postgres or sqlite3")
	pf.StringVar(&flags.dsn, "dsn", "", "Data source name / connection string")
	pf.IntVar(&flags.retries, "retries", 0, "Retry attempts after the first failure (default 1)")
	pf.DurationVar(&flags.timeout, "timeout", 0, "Overall deadline for the command, including backoff (e.g. 30s)")
}
