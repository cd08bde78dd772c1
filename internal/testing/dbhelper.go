package testing

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/vvka-141/dbretry/internal/db"
	"github.com/vvka-141/dbretry/internal/testinfra"
	"github.com/vvka-141/dbretry/pkg/dbretry"
)

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		ctx := context.Background()
		container, err := testinfra.StartPostgres(ctx)
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test database connection string.
// Priority: DBRETRY_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("DBRETRY_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("DBRETRY_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString for convenience.
// Returns the test connection string if available, otherwise skips the test.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// OpenTestDB opens a pool to the test PostgreSQL server with the given driver.
// The pool is closed when the test completes.
func OpenTestDB(t *testing.T, driver string) *sqlx.DB {
	t.Helper()

	connString := RequireDatabase(t)
	pool, err := db.OpenDB(&dbretry.ConnectionConfig{Driver: driver, DSN: connString})
	if err != nil {
		t.Fatalf("Failed to open %s pool: %v", driver, err)
	}

	t.Cleanup(func() {
		pool.Close()
	})

	return pool
}

// OpenMemoryDB opens an in-memory SQLite database restricted to a single
// connection so every statement sees the same data.
func OpenMemoryDB(t *testing.T) *sqlx.DB {
	t.Helper()

	pool, err := db.OpenDB(&dbretry.ConnectionConfig{
		Driver:       db.DriverSQLite,
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
	})

	return pool
}
