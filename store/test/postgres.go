package test

import (
	"os"
	"testing"
)

// GetPostgresDSN returns the DSN of the PostgreSQL instance used for driver tests.
// Tests are skipped when POSTGRES_TEST_DSN is not set.
func GetPostgresDSN(t *testing.T) string {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN is not set")
	}
	return dsn
}
