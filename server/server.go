package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/plugin/markdown"
	"github.com/hrygo/notegraph/server/auth"
	"github.com/hrygo/notegraph/server/internal/observability"
	apiv1 "github.com/hrygo/notegraph/server/router/api/v1"
	"github.com/hrygo/notegraph/server/router/frontend"
	"github.com/hrygo/notegraph/server/router/rss"
	"github.com/hrygo/notegraph/server/runner/session"
	"github.com/hrygo/notegraph/store"
)

// maxDurationSamples bounds the latency window kept for metrics.
const maxDurationSamples = 1000

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer        *echo.Echo
	apiV1Service      *apiv1.APIV1Service
	runnerCancelFuncs []context.CancelFunc
}

func NewServer(_ context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	s := &Server{
		Store:   store,
		Profile: profile,
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.HTTPErrorHandler = apiv1.HTTPErrorHandler
	s.echoServer = echoServer

	metrics := observability.NewMetrics(maxDurationSamples)
	authenticator := auth.NewAuthenticator(store, profile.Secret, profile.SessionTTL)

	// The request logger wraps everything so recovered panics are recorded too.
	echoServer.Use(observability.Middleware(slog.Default(), metrics))
	echoServer.Use(middleware.Recover())
	echoServer.Use(authenticator.Middleware())

	s.apiV1Service = apiv1.NewAPIV1Service(profile, store, authenticator, metrics)
	s.apiV1Service.RegisterRoutes(echoServer)

	markdownService := markdown.NewService()
	rss.NewRSSService(profile, s.apiV1Service.NoteService, markdownService).RegisterRoutes(echoServer)
	frontend.NewFrontendService(s.apiV1Service.NoteService, markdownService).RegisterRoutes(echoServer)
	return s, nil
}

func (s *Server) Start(ctx context.Context) error {
	address := s.Profile.ListenAddr()
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.echoServer.Listener = listener

	// Start background runners.
	s.StartBackgroundRunners(ctx)

	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", slog.String("error", err.Error()))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	// Cancel all background runners
	for _, cancelFunc := range s.runnerCancelFuncs {
		if cancelFunc != nil {
			cancelFunc()
		}
	}

	// Shutdown echo server.
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	s.apiV1Service.Close()

	// Close database connection.
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}

	slog.Info("server stopped properly")
}

func (s *Server) StartBackgroundRunners(ctx context.Context) {
	sessionCtx, sessionCancel := context.WithCancel(ctx)
	s.runnerCancelFuncs = append(s.runnerCancelFuncs, sessionCancel)

	sessionRunner := session.NewRunner(s.Store)
	go sessionRunner.Run(sessionCtx)
}

// Handler exposes the configured router.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}
