package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/vvka-141/dbretry/internal/config"
	"github.com/vvka-141/dbretry/internal/retry/retrytest"
)

// runCLI executes the root command with args in an isolated working directory
// and returns what was written to stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// isolate clears connection env vars, moves into a fresh directory and
// installs a fake clock. It returns the clock and a SQLite DSN inside the directory.
func isolate(t *testing.T) (*retrytest.FakeClock, string) {
	t.Helper()
	for _, key := range []string{config.EnvDriver, config.EnvDSN, config.EnvDatabaseURL, config.EnvRetries} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	t.Chdir(dir)

	fake := retrytest.NewFakeClock()
	original := clock
	clock = fake
	t.Cleanup(func() { clock = original })

	return fake, "file:" + filepath.Join(dir, "test.db")
}

func resetFlags() {
	flags = globalFlags{}
	queryFlags.plain = false
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}
}
