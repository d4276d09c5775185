package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	errs "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/server/internal/observability"
	"github.com/hrygo/notegraph/store"
)

// Authenticator signs users in and out and resolves the owner of a request
// from its session cookie.
type Authenticator struct {
	store  *store.Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(store *store.Store, secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// SignUp creates a user. The email is the login identifier and must be unused.
func (a *Authenticator) SignUp(ctx context.Context, email, username, password string) (*store.User, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)

	var missing []string
	if email == "" {
		missing = append(missing, "email")
	}
	if username == "" {
		missing = append(missing, "username")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, errs.InvalidArgumentf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if len(password) > MaxPasswordBytes {
		return nil, errs.InvalidArgumentf("password must be at most %d bytes", MaxPasswordBytes)
	}

	existing, err := a.store.GetUser(ctx, &store.FindUser{Email: &email})
	if err != nil {
		return nil, errs.DataAccess(err)
	}
	if existing != nil {
		return nil, errs.AlreadyExists("email is already registered")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, errs.DataAccess(err)
	}
	user, err := a.store.CreateUser(ctx, &store.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, signUpError(err)
	}
	return user, nil
}

// SignIn checks the credentials and opens a session. An unknown email and a
// wrong password fail the same way.
func (a *Authenticator) SignIn(ctx context.Context, email, password string) (*store.User, string, time.Time, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", time.Time{}, errs.InvalidArgument("email and password are required")
	}

	user, err := a.store.GetUser(ctx, &store.FindUser{Email: &email})
	if err != nil {
		return nil, "", time.Time{}, errs.DataAccess(err)
	}
	if user == nil || !ComparePassword(user.PasswordHash, password) {
		return nil, "", time.Time{}, errs.Unauthorized()
	}

	now := a.now()
	expiresAt := now.Add(a.ttl)
	session, err := a.store.CreateSession(ctx, &store.Session{
		ID:        shortuuid.New(),
		UserID:    user.ID,
		ExpiresTs: expiresAt.Unix(),
	})
	if err != nil {
		return nil, "", time.Time{}, errs.DataAccess(err)
	}

	token, err := GenerateSessionToken(user.ID, session.ID, now, expiresAt, a.secret)
	if err != nil {
		return nil, "", time.Time{}, errs.DataAccess(err)
	}
	return user, token, expiresAt, nil
}

// SignOut deletes the session resolved by Authenticate. An empty ID is a no-op.
func (a *Authenticator) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := a.store.DeleteSession(ctx, &store.DeleteSession{ID: sessionID}); err != nil {
		return errs.DataAccess(err)
	}
	return nil
}

// Authenticate resolves the user behind token.
// Every failure other than a store error is UNAUTHORIZED.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*store.User, string, error) {
	now := a.now()
	claims, err := ParseSessionToken(token, a.secret, now)
	if err != nil {
		return nil, "", errs.Unauthorized()
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, "", errs.Unauthorized()
	}

	session, err := a.store.GetSession(ctx, &store.FindSession{ID: &claims.ID})
	if err != nil {
		return nil, "", errs.DataAccess(err)
	}
	if session == nil || session.UserID != userID {
		return nil, "", errs.Unauthorized()
	}
	if session.ExpiresTs <= now.Unix() {
		if err := a.store.DeleteSession(ctx, &store.DeleteSession{ID: session.ID}); err != nil {
			slog.Warn("failed to delete expired session", slog.String("error", err.Error()))
		}
		return nil, "", errs.Unauthorized()
	}

	user, err := a.store.GetUser(ctx, &store.FindUser{ID: &userID})
	if err != nil {
		return nil, "", errs.DataAccess(err)
	}
	if user == nil {
		return nil, "", errs.Unauthorized()
	}
	return user, session.ID, nil
}

// Middleware resolves the session cookie into the request context.
// Requests without a valid session continue anonymously; handlers decide
// whether that is allowed.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			ctx := c.Request().Context()
			user, sessionID, err := a.Authenticate(ctx, cookie.Value)
			if err != nil {
				if errs.IsCode(err, errs.ErrCodeDataAccess) {
					return err
				}
				return next(c)
			}

			if reqCtx, ok := observability.FromContext(ctx); ok {
				reqCtx.UserID = user.ID
			}
			c.SetRequest(c.Request().WithContext(SetUserInContext(ctx, user, sessionID)))
			return next(c)
		}
	}
}

// signUpError maps a failed user insert. A concurrent sign-up can take the
// email between the lookup and the insert.
func signUpError(err error) error {
	if errors.Is(err, store.ErrUserEmailTaken) {
		return errs.AlreadyExists("email is already registered")
	}
	return errs.DataAccess(err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
