package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/store"
)

func TestSessionStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user, err := createTestingHostUser(ctx, ts)
	require.NoError(t, err)

	live, err := ts.CreateSession(ctx, &store.Session{ID: "live", UserID: user.ID, ExpiresTs: 2_000_000_000})
	require.NoError(t, err)
	require.NotZero(t, live.CreatedTs)
	_, err = ts.CreateSession(ctx, &store.Session{ID: "stale", UserID: user.ID, ExpiresTs: 1_000})
	require.NoError(t, err)

	got, err := ts.GetSession(ctx, &store.FindSession{ID: &live.ID})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, user.ID, got.UserID)

	removed, err := ts.DeleteExpiredSessions(ctx, 1_500_000_000)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	require.NoError(t, ts.DeleteSession(ctx, &store.DeleteSession{ID: live.ID}))
	got, err = ts.GetSession(ctx, &store.FindSession{ID: &live.ID})
	require.NoError(t, err)
	require.Nil(t, got)
}
