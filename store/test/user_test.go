package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/store"
)

func TestUserStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	user, err := createTestingHostUser(ctx, ts)
	require.NoError(t, err)
	require.NotZero(t, user.ID)

	byID, err := ts.GetUser(ctx, &store.FindUser{ID: &user.ID})
	require.NoError(t, err)
	require.Equal(t, "host@notegraph.local", byID.Email)

	email := "host@notegraph.local"
	byEmail, err := ts.GetUser(ctx, &store.FindUser{Email: &email})
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)

	missing := "nobody@notegraph.local"
	none, err := ts.GetUser(ctx, &store.FindUser{Email: &missing})
	require.NoError(t, err)
	require.Nil(t, none)

	_, err = createTestingUser(ctx, ts, "dup", "host@notegraph.local")
	require.ErrorIs(t, err, store.ErrUserEmailTaken)
}
