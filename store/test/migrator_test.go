package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/store"
)

func TestGetCurrentSchemaVersion(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	currentSchemaVersion, err := ts.GetCurrentSchemaVersion()
	require.NoError(t, err)
	require.Equal(t, "0.4.1", currentSchemaVersion)

	setting, err := ts.GetSystemSetting(ctx, store.SystemSettingSchemaVersionName)
	require.NoError(t, err)
	require.NotNil(t, setting)
	require.Equal(t, currentSchemaVersion, setting.Value)
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	require.NoError(t, ts.Migrate(ctx))
	require.NoError(t, ts.Migrate(ctx))
}

func TestDemoSeed(t *testing.T) {
	if getDriverFromEnv() != "sqlite" {
		t.Skip("demo data is only seeded for SQLite")
	}
	ctx := context.Background()
	ts := newTestingStoreWithMode(ctx, t, "demo")

	email := "demo@notegraph.local"
	user, err := ts.GetUser(ctx, &store.FindUser{Email: &email})
	require.NoError(t, err)
	require.NotNil(t, user)

	notes, err := ts.ListNotes(ctx, &store.FindNote{CreatorID: &user.ID})
	require.NoError(t, err)
	require.Len(t, notes, 4)

	// A second migration must not seed again.
	require.NoError(t, ts.Migrate(ctx))
	notes, err = ts.ListNotes(ctx, &store.FindNote{CreatorID: &user.ID})
	require.NoError(t, err)
	require.Len(t, notes, 4)
}
