package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <sql> [args...]",
	Short: "Execute a statement with retries and print the rows affected",
	Long: `Exec runs one statement. Positional arguments after the SQL are bound to
its placeholders as strings.

A failed attempt re-runs the whole statement, so it should be idempotent or
run with --retries 0.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := commandContext(cmd.Context(), env.settings.Retry.Timeout)
	defer cancel()

	affected, err := env.retrier.ExecWithRetryContext(ctx, env.db, args[0], bindArgs(args[1:])...)
	if err != nil {
		return classifyFailure(err, env.settings.Connection.Driver)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) affected\n", affected)
	return nil
}

// bindArgs converts positional CLI arguments to driver arguments.
func bindArgs(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}
