package frontend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notegraph/plugin/markdown"
	"github.com/hrygo/notegraph/server/auth"
	"github.com/hrygo/notegraph/server/service/note"
	"github.com/hrygo/notegraph/store"
	teststore "github.com/hrygo/notegraph/store/test"
)

type fixture struct {
	service *note.Service
	alice   *store.User
	bob     *store.User
}

func newFixture(t *testing.T) *fixture {
	ctx := context.Background()
	ts := teststore.NewTestingStore(ctx, t)
	alice, err := ts.CreateUser(ctx, &store.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	bob, err := ts.CreateUser(ctx, &store.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	return &fixture{service: note.NewService(ts, 1), alice: alice, bob: bob}
}

func (f *fixture) get(t *testing.T, user *store.User, path string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	if user != nil {
		e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.SetRequest(c.Request().WithContext(auth.SetUserInContext(c.Request().Context(), user, "session")))
				return next(c)
			}
		})
	}
	NewFrontendService(f.service, markdown.NewService()).RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (f *fixture) create(t *testing.T, user *store.User, title, content string, tags ...string) *store.Note {
	ctx := auth.SetUserInContext(context.Background(), user, "session")
	n, err := f.service.CreateNote(ctx, &note.WriteNoteRequest{Title: &title, Content: &content, Tags: tags})
	require.NoError(t, err)
	return n
}

func TestAnonymousVisitorsSeeSignIn(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/", "/all-notes", "/notes/1", "/graph", "/signin"} {
		rec := f.get(t, nil, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), `id="signin"`, path)
	}
}

func TestIndexPage(t *testing.T) {
	f := newFixture(t)
	f.create(t, f.alice, "Weekly planning", "Review *goals*.", "Work", "Personal")
	f.create(t, f.bob, "Bob's secret", "hidden", "work")

	rec := f.get(t, f.alice, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Weekly planning")
	assert.Contains(t, body, "Review goals.")
	assert.Contains(t, body, "work (1)")
	assert.NotContains(t, body, "Bob&#39;s secret")
	assert.Contains(t, body, `id="create-note"`)
}

func TestAllNotesPageFiltersByTag(t *testing.T) {
	f := newFixture(t)
	f.create(t, f.alice, "Standup notes", "", "work")
	f.create(t, f.alice, "Lisbon trip", "", "Travel")

	rec := f.get(t, f.alice, "/all-notes?tag=travel")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Lisbon trip")
	assert.NotContains(t, rec.Body.String(), "Standup notes")
}

func TestNotePage(t *testing.T) {
	f := newFixture(t)
	n := f.create(t, f.alice, "Packing list", "- passport\n- <script>alert(1)</script>", "travel")
	f.create(t, f.alice, "Lisbon trip", "", "Travel")
	path := "/notes/" + strconv.Itoa(int(n.ID))

	rec := f.get(t, f.alice, path)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<li>passport</li>")
	assert.NotContains(t, body, "<script>alert(1)")
	assert.Contains(t, body, "by alice")
	assert.Contains(t, body, "Related notes")
	assert.Contains(t, body, "Lisbon trip")

	rec = f.get(t, f.bob, path)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "note not found")

	rec = f.get(t, f.alice, "/notes/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGraphPage(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, f.alice, "/graph")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fetch("/api/v1/graph"`)
}
