package v1

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/server/auth"
	errs "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/server/internal/observability"
	ratelimit "github.com/hrygo/notegraph/server/middleware"
	"github.com/hrygo/notegraph/server/service/note"
	"github.com/hrygo/notegraph/store"
)

type APIV1Service struct {
	Profile       *profile.Profile
	Store         *store.Store
	Authenticator *auth.Authenticator
	NoteService   *note.Service
	Metrics       *observability.Metrics

	// signInLimiter throttles sign-in attempts per client IP.
	signInLimiter *ratelimit.RateLimiter
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, authenticator *auth.Authenticator, metrics *observability.Metrics) *APIV1Service {
	return &APIV1Service{
		Profile:       profile,
		Store:         store,
		Authenticator: authenticator,
		NoteService:   note.NewService(store, profile.GraphConcurrency),
		Metrics:       metrics,
		signInLimiter: ratelimit.NewRateLimiter(),
	}
}

// RegisterRoutes registers the JSON API and the health check with the given Echo instance.
// The authenticator middleware must already run on the instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/healthz", func(c echo.Context) error {
		if err := s.Store.GetDriver().GetDB().PingContext(c.Request().Context()); err != nil {
			return errs.DataAccess(err)
		}
		return c.String(http.StatusOK, "ok")
	})

	api := echoServer.Group("/api/v1", middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
	}))

	// Public methods.
	api.POST("/auth/signup", s.SignUp)
	api.POST("/auth/signin", s.SignIn, s.signInLimiter.Middleware())
	api.POST("/auth/signout", s.SignOut)

	private := api.Group("", RequireUser)
	private.GET("/auth/me", s.GetCurrentUser)
	private.GET("/notes", s.ListNotes)
	private.POST("/notes", s.CreateNote)
	private.GET("/notes/:id", s.GetNote)
	private.PUT("/notes/:id", s.UpdateNote)
	private.GET("/notes/:id/related", s.ListRelatedNotes)
	private.GET("/tags", s.ListTags)
	private.GET("/graph", s.GetGraph)
	private.GET("/system/metrics", s.GetMetricsOverview)
}

// Close releases the sign-in limiter.
func (s *APIV1Service) Close() {
	s.signInLimiter.Close()
}

// RequireUser rejects anonymous requests before any handler runs.
func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if auth.GetUserID(c.Request().Context()) == 0 {
			return errs.Unauthorized()
		}
		return next(c)
	}
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Code    errs.ErrorCode `json:"code"`
	Message string         `json:"message"`
}

// HTTPErrorHandler writes err as an ErrorResponse. Causes of DATA_ACCESS
// errors are logged and never sent to the client.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status int
		body   ErrorResponse
	)
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		body = ErrorResponse{Code: codeForStatus(he.Code), Message: strings.ToLower(http.StatusText(he.Code))}
		if msg, ok := he.Message.(string); ok && status < http.StatusInternalServerError {
			body.Message = msg
		}
	} else {
		code := errs.CodeOf(err)
		status = errs.HTTPStatus(code)
		body = ErrorResponse{Code: code, Message: errs.PublicMessage(err)}
	}

	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(c.Request().Context()).Error("request failed with internal error",
			slog.String("error", err.Error()),
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		slog.Warn("failed to write error response", slog.String("error", err.Error()))
	}
}

func codeForStatus(status int) errs.ErrorCode {
	switch status {
	case http.StatusUnauthorized:
		return errs.ErrCodeUnauthorized
	case http.StatusNotFound:
		return errs.ErrCodeNotFound
	case http.StatusTooManyRequests:
		return errs.ErrCodeRateLimitExceeded
	case http.StatusConflict:
		return errs.ErrCodeAlreadyExists
	}
	if status >= http.StatusInternalServerError {
		return errs.ErrCodeDataAccess
	}
	return errs.ErrCodeInvalidArgument
}
