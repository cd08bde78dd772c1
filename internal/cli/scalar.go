package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scalarCmd = &cobra.Command{
	Use:   "scalar <sql> [args...]",
	Short: "Print the first column of the first row, with retries",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScalar,
}

func init() {
	rootCmd.AddCommand(scalarCmd)
}

func runScalar(cmd *cobra.Command, args []string) error {
	env, err := newEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := commandContext(cmd.Context(), env.settings.Retry.Timeout)
	defer cancel()

	value, err := env.retrier.ScalarWithRetryContext(ctx, env.db, args[0], bindArgs(args[1:])...)
	if err != nil {
		return classifyFailure(err, env.settings.Connection.Driver)
	}

	fmt.Fprintln(cmd.OutOrStdout(), formatValue(value))
	return nil
}
