package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var queryFlags struct {
	plain bool
}

var queryCmd = &cobra.Command{
	Use:   "query <sql> [args...]",
	Short: "Run a query with retries and print the result set as a table",
	Long: `Query runs one SELECT-style statement and renders every returned row.

Only obtaining the result set is retried. Once rows start streaming, a
failure while reading them is reported as-is.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryFlags.plain, "plain", false, "Print tab-separated rows without borders")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := commandContext(cmd.Context(), env.settings.Retry.Timeout)
	defer cancel()

	rows, err := env.retrier.QueryWithRetryContext(ctx, env.db, args[0], bindArgs(args[1:])...)
	if err != nil {
		return classifyFailure(err, env.settings.Connection.Driver)
	}

	result, err := collectRows(rows)
	if err != nil {
		return classifyFailure(err, env.settings.Connection.Driver)
	}

	env.logger.Verbose("%d row(s) returned", len(result.rows))
	if queryFlags.plain {
		fmt.Fprint(cmd.OutOrStdout(), renderPlain(result))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(result))
	return nil
}
