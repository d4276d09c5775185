package test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/internal/version"
	"github.com/hrygo/notegraph/store"
	"github.com/hrygo/notegraph/store/db"
)

// NewTestingStore opens a migrated store backed by the driver named in DRIVER (sqlite by default).
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	return newTestingStoreWithMode(ctx, t, "dev")
}

func newTestingStoreWithMode(ctx context.Context, t *testing.T, mode string) *store.Store {
	t.Helper()
	p := getTestingProfile(t, mode)
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	s := store.New(dbDriver, p)
	t.Cleanup(func() {
		s.Close()
	})
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return s
}

func getTestingProfile(t *testing.T, mode string) *profile.Profile {
	dir := t.TempDir()
	driver := getDriverFromEnv()
	p := &profile.Profile{
		Mode:             mode,
		Data:             dir,
		Driver:           driver,
		Version:          version.GetCurrentVersion(mode),
		Secret:           "test-secret",
		GraphConcurrency: 2,
	}
	switch driver {
	case "sqlite":
		p.DSN = filepath.Join(dir, fmt.Sprintf("notegraph_%s.db", mode))
	case "postgres":
		p.DSN = GetPostgresDSN(t)
	}
	return p
}

func getDriverFromEnv() string {
	driver := os.Getenv("DRIVER")
	if driver == "" {
		driver = "sqlite"
	}
	return driver
}

func createTestingHostUser(ctx context.Context, ts *store.Store) (*store.User, error) {
	return createTestingUser(ctx, ts, "host", "host@notegraph.local")
}

func createTestingUser(ctx context.Context, ts *store.Store, username, email string) (*store.User, error) {
	return ts.CreateUser(ctx, &store.User{
		Username: username,
		Email:    email,
		// bcrypt hash of "notegraph"
		PasswordHash: "$2a$10$RuSvjKAQ37na04QRoDGd1.DvVyTU8GLwhG3Kmi4x84X/0zv1IYnKq",
	})
}
