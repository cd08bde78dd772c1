package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vvka-141/dbretry/pkg/dbretry"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// Environment variables consulted by Resolve.
const (
	EnvDriver      = "DBRETRY_DRIVER"
	EnvDSN         = "DBRETRY_DSN"
	EnvDatabaseURL = "DATABASE_URL"
	EnvRetries     = "DBRETRY_RETRIES"
)

// DefaultDriver is used when no driver is configured anywhere.
const DefaultDriver = "pgx"

type ConnectionConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns,omitempty"`
	MaxIdleConns int    `yaml:"max_idle_conns,omitempty"`
}

type RetryConfig struct {
	// Attempts is a pointer so an explicit 0 (never retry) differs from unset.
	Attempts    *int `yaml:"attempts,omitempty"`
	MaxExponent int  `yaml:"max_exponent,omitempty"`
}

type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Retry      RetryConfig      `yaml:"retry"`
	Timeout    string           `yaml:"timeout"`
}

// Load reads dbretry.yaml from dir.
func Load(dir string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(dir, dbretry.DefaultConfigFileName))
}

// LoadFile reads a config file from an explicit path.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Overrides carries values given on the command line. Zero values mean "not set".
type Overrides struct {
	Driver  string
	DSN     string
	Retries *int
	Timeout time.Duration
}

// Settings is the fully resolved configuration of one command.
type Settings struct {
	Connection dbretry.ConnectionConfig
	Retry      dbretry.RetryConfig
}

// Resolve merges command-line overrides, environment and the optional project
// file, in that order of precedence, on top of the defaults.
// getenv is usually os.Getenv.
func Resolve(file *ProjectConfig, overrides Overrides, getenv func(string) string) (*Settings, error) {
	if file == nil {
		file = &ProjectConfig{}
	}

	s := &Settings{Retry: dbretry.DefaultRetryConfig()}

	s.Connection.Driver = firstNonEmpty(overrides.Driver, getenv(EnvDriver), file.Connection.Driver, DefaultDriver)
	s.Connection.DSN = firstNonEmpty(overrides.DSN, getenv(EnvDSN), getenv(EnvDatabaseURL), file.Connection.DSN)
	s.Connection.MaxOpenConns = file.Connection.MaxOpenConns
	s.Connection.MaxIdleConns = file.Connection.MaxIdleConns

	if file.Retry.MaxExponent != 0 {
		s.Retry.MaxExponent = file.Retry.MaxExponent
	}

	switch {
	case overrides.Retries != nil:
		s.Retry.Attempts = *overrides.Retries
	case getenv(EnvRetries) != "":
		n, err := strconv.Atoi(getenv(EnvRetries))
		if err != nil {
			return nil, fmt.Errorf("%s=%q is not an integer: %w", EnvRetries, getenv(EnvRetries), dbretry.ErrInvalidConfig)
		}
		s.Retry.Attempts = n
	case file.Retry.Attempts != nil:
		s.Retry.Attempts = *file.Retry.Attempts
	}

	switch {
	case overrides.Timeout != 0:
		s.Retry.Timeout = overrides.Timeout
	case file.Timeout != "":
		d, err := time.ParseDuration(file.Timeout)
		if err != nil {
			return nil, fmt.Errorf("timeout %q: %w", file.Timeout, dbretry.ErrInvalidConfig)
		}
		s.Retry.Timeout = d
	}

	if err := errors.Join(s.Connection.Validate(), s.Retry.Validate()); err != nil {
		return nil, err
	}
	return s, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
