package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/notegraph/server/auth"
	errs "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/store"
)

type SignUpRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type User struct {
	ID        int32  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// SignUp registers a new user.
// POST /api/v1/auth/signup
func (s *APIV1Service) SignUp(c echo.Context) error {
	var req SignUpRequest
	if err := c.Bind(&req); err != nil {
		return errs.InvalidArgument("invalid request body")
	}
	user, err := s.Authenticator.SignUp(c.Request().Context(), req.Email, req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, convertUserFromStore(user))
}

// SignIn opens a session and sets the session cookie.
// POST /api/v1/auth/signin
func (s *APIV1Service) SignIn(c echo.Context) error {
	var req SignInRequest
	if err := c.Bind(&req); err != nil {
		return errs.InvalidArgument("invalid request body")
	}
	user, token, expiresAt, err := s.Authenticator.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	c.SetCookie(s.sessionCookie(token, expiresAt))
	return c.JSON(http.StatusOK, convertUserFromStore(user))
}

// SignOut deletes the current session, if any, and expires the cookie.
// POST /api/v1/auth/signout
func (s *APIV1Service) SignOut(c echo.Context) error {
	ctx := c.Request().Context()
	if err := s.Authenticator.SignOut(ctx, auth.GetSessionID(ctx)); err != nil {
		return err
	}
	c.SetCookie(s.sessionCookie("", time.Unix(0, 0)))
	return c.NoContent(http.StatusNoContent)
}

// GetCurrentUser returns the signed-in user.
// GET /api/v1/auth/me
func (s *APIV1Service) GetCurrentUser(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return errs.Unauthorized()
	}
	return c.JSON(http.StatusOK, convertUserFromStore(user))
}

func (s *APIV1Service) sessionCookie(token string, expiresAt time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   strings.HasPrefix(s.Profile.InstanceURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		cookie.MaxAge = -1
	}
	return cookie
}

func convertUserFromStore(user *store.User) *User {
	return &User{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: formatTs(user.CreatedTs),
	}
}
