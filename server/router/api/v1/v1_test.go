package v1

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/plugin/graph"
	"github.com/hrygo/notegraph/server/auth"
	errs "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/server/internal/observability"
	teststore "github.com/hrygo/notegraph/store/test"
)

type testServer struct {
	echo    *echo.Echo
	service *APIV1Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t)
	p := &profile.Profile{Mode: "dev", Secret: "test-secret", SessionTTL: time.Hour, GraphConcurrency: 2}
	metrics := observability.NewMetrics(100)
	authenticator := auth.NewAuthenticator(ts, p.Secret, p.SessionTTL)
	service := NewAPIV1Service(p, ts, authenticator, metrics)
	t.Cleanup(service.Close)

	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Use(observability.Middleware(slog.New(slog.NewTextHandler(io.Discard, nil)), metrics))
	e.Use(middleware.Recover())
	e.Use(authenticator.Middleware())
	service.RegisterRoutes(e)
	return &testServer{echo: e, service: service}
}

func (s *testServer) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

// signIn registers a user and returns its session cookie.
func (s *testServer) signIn(t *testing.T, email string) *http.Cookie {
	t.Helper()
	body := `{"email":"` + email + `","username":"` + strings.Split(email, "@")[0] + `","password":"secret"}`
	rec := s.do(t, http.MethodPost, "/api/v1/auth/signup", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/auth/signin", `{"email":"`+email+`","password":"secret"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == auth.SessionCookieName {
			return cookie
		}
	}
	t.Fatalf("no session cookie in sign-in response")
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(observability.HeaderRequestID))
}

func TestHealthzReportsDatabaseFailure(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.service.Store.GetDriver().GetDB().Close())

	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ErrorResponse{Code: errs.ErrCodeDataAccess, Message: errs.DataAccessMessage}, decode[ErrorResponse](t, rec))
}

func TestSignInCookie(t *testing.T) {
	s := newTestServer(t)
	cookie := s.signIn(t, "alice@example.com")
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.NotEmpty(t, cookie.Value)

	rec := s.do(t, http.MethodGet, "/api/v1/auth/me", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[User](t, rec)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "alice@example.com", me.Email)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/signin", `{"email":"alice@example.com","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	wrongPassword := decode[ErrorResponse](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/signin", `{"email":"nobody@example.com","password":"secret"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, wrongPassword, decode[ErrorResponse](t, rec))

	rec = s.do(t, http.MethodPost, "/api/v1/auth/signup", `{"email":"ALICE@example.com","username":"a2","password":"x"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, errs.ErrCodeAlreadyExists, decode[ErrorResponse](t, rec).Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/signup", `{"email":"long@example.com","username":"long","password":"`+strings.Repeat("x", 73)+`"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrorResponse{Code: errs.ErrCodeInvalidArgument, Message: "password must be at most 72 bytes"}, decode[ErrorResponse](t, rec))
}

func TestSignOut(t *testing.T) {
	s := newTestServer(t)
	cookie := s.signIn(t, "alice@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/auth/signout", "", cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)
	assert.Negative(t, cleared[0].MaxAge)

	// The old token no longer maps to a session.
	rec = s.do(t, http.MethodGet, "/api/v1/auth/me", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/signout", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAnonymousRequestsAreRejected(t *testing.T) {
	s := newTestServer(t)
	requests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/v1/notes", ""},
		{http.MethodPost, "/api/v1/notes", `{"title":"t","content":"c","tags":[]}`},
		{http.MethodGet, "/api/v1/notes/1", ""},
		{http.MethodPut, "/api/v1/notes/1", `{"title":"t","content":"c","tags":[]}`},
		{http.MethodGet, "/api/v1/notes/1/related", ""},
		{http.MethodGet, "/api/v1/tags", ""},
		{http.MethodGet, "/api/v1/graph", ""},
		{http.MethodGet, "/api/v1/auth/me", ""},
		{http.MethodGet, "/api/v1/system/metrics", ""},
	}
	forged := &http.Cookie{Name: auth.SessionCookieName, Value: "not-a-token"}
	for _, r := range requests {
		for _, cookie := range []*http.Cookie{nil, forged} {
			rec := s.do(t, r.method, r.path, r.body, cookie)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", r.method, r.path)
			body := decode[ErrorResponse](t, rec)
			assert.Equal(t, errs.ErrCodeUnauthorized, body.Code)
			assert.Equal(t, errs.UnauthorizedMessage, body.Message)
		}
	}
}

func TestNoteLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice := s.signIn(t, "alice@example.com")
	bob := s.signIn(t, "bob@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/notes", `{"title":"Weekly planning","content":"# Goals","tags":["Work","Personal"]}`, alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[CreateNoteResponse](t, rec)
	require.NotZero(t, created.ID)
	path := "/api/v1/notes/" + itoa(created.ID)

	rec = s.do(t, http.MethodGet, path, "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	n := decode[Note](t, rec)
	assert.Equal(t, "Weekly planning", n.Title)
	assert.Equal(t, "alice", n.Username)
	assert.Equal(t, "Work Personal", n.Tags)
	assert.Equal(t, []string{"personal", "work"}, n.TagList)
	_, err := time.Parse(time.RFC3339, n.CreatedAt)
	assert.NoError(t, err)

	rec = s.do(t, http.MethodGet, path, "", bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errs.ErrCodeNotFound, decode[ErrorResponse](t, rec).Code)

	rec = s.do(t, http.MethodPut, path, `{"title":"stolen","content":"","tags":[]}`, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, path, `{"title":"Weekly review","content":"done","tags":["work"]}`, alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	n = decode[Note](t, rec)
	assert.Equal(t, "Weekly review", n.Title)
	assert.Equal(t, []string{"work"}, n.TagList)

	rec = s.do(t, http.MethodGet, "/api/v1/notes", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]Note](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/api/v1/notes", "", bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]Note](t, rec))
}

func TestCreateNoteValidation(t *testing.T) {
	s := newTestServer(t)
	alice := s.signIn(t, "alice@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/notes", `{"title":"t","content":"c"}`, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, errs.ErrCodeInvalidArgument, body.Code)
	assert.Contains(t, body.Message, "tags")

	rec = s.do(t, http.MethodPost, "/api/v1/notes", `{not json`, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/notes/abc", "", alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/notes?filter="+urlEscape(`title +`), "", alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/notes", "", alice)
	assert.Empty(t, decode[[]Note](t, rec))
}

func TestListNotesFilters(t *testing.T) {
	s := newTestServer(t)
	alice := s.signIn(t, "alice@example.com")
	for _, body := range []string{
		`{"title":"Weekly planning","content":"","tags":["Work","Personal"]}`,
		`{"title":"Standup notes","content":"","tags":["work"]}`,
		`{"title":"Lisbon trip","content":"","tags":["Travel"]}`,
	} {
		rec := s.do(t, http.MethodPost, "/api/v1/notes", body, alice)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/api/v1/notes?tag=WORK", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]Note](t, rec), 2)

	rec = s.do(t, http.MethodGet, "/api/v1/notes?filter="+urlEscape(`"travel" in tags`), "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	notes := decode[[]Note](t, rec)
	require.Len(t, notes, 1)
	assert.Equal(t, "Lisbon trip", notes[0].Title)

	rec = s.do(t, http.MethodGet, "/api/v1/tags", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []Tag{{Name: "work", Count: 2}, {Name: "personal", Count: 1}, {Name: "travel", Count: 1}}, decode[[]Tag](t, rec))
}

func TestGraphEndpoint(t *testing.T) {
	s := newTestServer(t)
	alice := s.signIn(t, "alice@example.com")
	for _, body := range []string{
		`{"title":"Weekly planning","content":"","tags":["Work","Personal"]}`,
		`{"title":"Standup notes","content":"","tags":["work"]}`,
		`{"title":"Lisbon trip","content":"","tags":["Travel"]}`,
		`{"title":"Packing list","content":"","tags":["travel","personal"]}`,
	} {
		rec := s.do(t, http.MethodPost, "/api/v1/notes", body, alice)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := s.do(t, http.MethodGet, "/api/v1/graph", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	g := decode[graph.KnowledgeGraph](t, rec)
	assert.Len(t, g.Nodes, 4)
	assert.Len(t, g.Links, 3)
	assert.Equal(t, 4, g.Stats.NodeCount)
	assert.Equal(t, 3, g.Stats.EdgeCount)

	rec = s.do(t, http.MethodGet, "/api/v1/graph?tag=travel", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	g = decode[graph.KnowledgeGraph](t, rec)
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.Links, 1)

	for _, raw := range []string{"abc", "NaN", "1.5"} {
		rec = s.do(t, http.MethodGet, "/api/v1/graph?min_importance="+raw, "", alice)
		assert.Equal(t, http.StatusBadRequest, rec.Code, raw)
		assert.Equal(t, errs.ErrCodeInvalidArgument, decode[ErrorResponse](t, rec).Code)
	}

	bob := s.signIn(t, "bob@example.com")
	rec = s.do(t, http.MethodGet, "/api/v1/graph", "", bob)
	require.Equal(t, http.StatusOK, rec.Code)
	g = decode[graph.KnowledgeGraph](t, rec)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Links)
}

func TestRelatedNotesEndpoint(t *testing.T) {
	s := newTestServer(t)
	alice := s.signIn(t, "alice@example.com")
	var ids []int32
	for _, body := range []string{
		`{"title":"anchor","content":"","tags":["go","db"]}`,
		`{"title":"close","content":"","tags":["go","db"]}`,
		`{"title":"far","content":"","tags":["cooking"]}`,
	} {
		rec := s.do(t, http.MethodPost, "/api/v1/notes", body, alice)
		require.Equal(t, http.StatusCreated, rec.Code)
		ids = append(ids, decode[CreateNoteResponse](t, rec).ID)
	}

	rec := s.do(t, http.MethodGet, "/api/v1/notes/"+itoa(ids[0])+"/related", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	related := decode[[]RelatedNote](t, rec)
	require.Len(t, related, 1)
	assert.Equal(t, ids[1], related[0].Note.ID)
	assert.Equal(t, []string{"db", "go"}, related[0].SharedTags)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	alice := s.signIn(t, "alice@example.com")
	s.do(t, http.MethodGet, "/healthz", "", nil)

	rec := s.do(t, http.MethodGet, "/api/v1/system/metrics", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	overview := decode[MetricsOverviewResponse](t, rec)
	assert.GreaterOrEqual(t, overview.TotalRequests, int64(3))
	assert.Contains(t, overview.Routes, "GET /healthz")
}

func TestHTTPErrorHandlerHidesInternalErrors(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.GET("/boom", func(echo.Context) error {
		return errs.DataAccess(assert.AnError)
	})
	e.GET("/panic", func(echo.Context) error {
		panic("kaboom")
	}, middleware.Recover())

	for _, path := range []string{"/boom", "/panic"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode[ErrorResponse](t, rec)
		assert.Equal(t, errs.ErrCodeDataAccess, body.Code)
		assert.Equal(t, errs.DataAccessMessage, body.Message)
		assert.NotContains(t, rec.Body.String(), "kaboom")
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errs.ErrCodeNotFound, decode[ErrorResponse](t, rec).Code)
}

func itoa(id int32) string {
	return strconv.Itoa(int(id))
}

func urlEscape(s string) string {
	return url.QueryEscape(s)
}
