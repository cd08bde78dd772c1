package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/dbretry/internal/db"
	"github.com/vvka-141/dbretry/pkg/dbretry"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Open a connection, retrying until it succeeds or the budget is spent",
	Long: `Ping establishes one connection to the configured database.

A connection that is already open is not reopened. Otherwise each failed
attempt is followed by the backoff delay until the retry budget is exhausted,
and the last connection error is reported.`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, _ []string) error {
	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := commandContext(cmd.Context(), env.settings.Retry.Timeout)
	defer cancel()

	opener, err := db.NewOpener(&env.settings.Connection, env.db)
	if err != nil {
		return fmt.Errorf("%w: %w", dbretry.ErrInvalidConfig, err)
	}
	defer closeOpener(opener)

	if err := env.retrier.EnsureOpenWithRetryContext(ctx, opener); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return db.WrapConnectionError(err, env.settings.Connection.Driver)
	}

	env.logger.Verbose("connection state: %s", opener.State())
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}

func closeOpener(opener dbretry.Opener) {
	switch c := opener.(type) {
	case *db.PgxConn:
		_ = c.Close(context.Background())
	case *db.SQLConn:
		_ = c.Close()
	}
}
