package auth

import (
	"context"

	"github.com/hrygo/notegraph/store"
)

type contextKey int

const (
	userContextKey contextKey = iota
	sessionIDContextKey
)

// SetUserInContext returns a context carrying the authenticated user and its session.
func SetUserInContext(ctx context.Context, user *store.User, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	return context.WithValue(ctx, sessionIDContextKey, sessionID)
}

// GetUser returns the authenticated user, or nil for anonymous requests.
func GetUser(ctx context.Context) *store.User {
	user, _ := ctx.Value(userContextKey).(*store.User)
	return user
}

// GetUserID returns the authenticated user's ID, or 0 for anonymous requests.
func GetUserID(ctx context.Context) int32 {
	if user := GetUser(ctx); user != nil {
		return user.ID
	}
	return 0
}

// GetSessionID returns the session the request was authenticated with.
func GetSessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDContextKey).(string)
	return id
}
