package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/dbretry/internal/config"
	"github.com/vvka-141/dbretry/internal/db"
	"github.com/vvka-141/dbretry/internal/logging"
	"github.com/vvka-141/dbretry/internal/retry"
	"github.com/vvka-141/dbretry/pkg/dbretry"
)

// environment holds everything one command invocation needs.
type environment struct {
	settings *config.Settings
	logger   *logging.ConsoleLogger
	db       *sqlx.DB
	retrier  *db.Retrier
}

// loadProjectConfig loads godotenv and project configuration.
// Returns nil config if dbretry.yaml does not exist and --config was not given.
func loadProjectConfig() (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	if flags.configPath != "" {
		projectCfg, err := config.LoadFile(flags.configPath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load %s: %w", dbretry.ErrInvalidConfig, flags.configPath, err)
		}
		return projectCfg, nil
	}

	projectCfg, err := config.Load(".")
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to load %s: %w", dbretry.ErrInvalidConfig, dbretry.DefaultConfigFileName, err)
	}
	return projectCfg, nil
}

// resolveSettings merges flags, environment and the project file.
func resolveSettings(cmd *cobra.Command) (*config.Settings, error) {
	projectCfg, err := loadProjectConfig()
	if err != nil {
		return nil, err
	}

	overrides := config.Overrides{
		Driver:  flags.driver,
		DSN:     flags.dsn,
		Timeout: flags.timeout,
	}
	if cmd.Flags().Changed("retries") {
		retries := flags.retries
		overrides.Retries = &retries
	}

	return config.Resolve(projectCfg, overrides, os.Getenv)
}

// newEnvironment resolves settings, opens the pool lazily and builds the retrier.
// Callers must call env.close.
func newEnvironment(cmd *cobra.Command) (*environment, error) {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return nil, err
	}

	stderr := cmd.ErrOrStderr()
	logger := logging.NewConsoleLoggerWithWriter(stderr, flags.verbose, logging.IsTerminal(stderr)).
		With("run_id", uuid.NewString())

	logger.Verbose("driver=%s retries=%d max_exponent=%d timeout=%s",
		settings.Connection.Driver, settings.Retry.Attempts, settings.Retry.MaxExponent, settings.Retry.Timeout)

	pool, err := db.OpenDB(&settings.Connection, db.WithNoticeHandler(func(severity, message string) {
		logger.Info("%s: %s", severity, message)
	}))
	if err != nil {
		return nil, err
	}

	return &environment{
		settings: settings,
		logger:   logger,
		db:       pool,
		retrier:  newRetrier(settings.Retry, logger),
	}, nil
}

// newRetrier builds a retrier that reports each backoff through logger.
func newRetrier(cfg dbretry.RetryConfig, logger dbretry.Logger) *db.Retrier {
	var opts []retry.BackoffOption
	if cfg.MaxExponent > 0 {
		opts = append(opts, retry.WithMaxExponent(cfg.MaxExponent))
	}
	backoff := retry.NewExponentialBackoff(cfg.Attempts, opts...)
	executor := retry.NewExecutor(backoff).
		WithClock(clock).
		WithOnRetry(func(attempt int, delay time.Duration) {
			logger.Info("attempt %d of %d failed, retrying in %s", attempt, backoff.RetryAttempts()+1, delay)
		})
	return db.NewRetrierWithExecutor(executor)
}

func (e *environment) close() {
	if err := e.db.Close(); err != nil {
		e.logger.Verbose("closing pool: %v", err)
	}
}

// commandContext returns a context cancelled on SIGINT/SIGTERM and, when
// timeout is positive, after timeout.
func commandContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// classifyFailure attaches the exit-code sentinel to the error surfaced by a retried operation.
func classifyFailure(err error, driver string) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case db.IsConnectionError(err):
		return db.WrapConnectionError(err, driver)
	default:
		return fmt.Errorf("%w: %w", dbretry.ErrExecutionFailed, err)
	}
}
