// Package frontend serves the server-rendered HTML pages. Pages only read;
// every write goes through the JSON API.
package frontend

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/internal/tagset"
	"github.com/hrygo/notegraph/plugin/markdown"
	"github.com/hrygo/notegraph/server/auth"
	errs "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/server/service/note"
	"github.com/hrygo/notegraph/store"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	recentNoteCount = 10
	snippetSize     = 160
)

type FrontendService struct {
	NoteService     *note.Service
	MarkdownService *markdown.Service

	templates *template.Template
}

func NewFrontendService(noteService *note.Service, markdownService *markdown.Service) *FrontendService {
	funcMap := template.FuncMap{
		"join": strings.Join,
		"formatTs": func(ts int64) string {
			return time.Unix(ts, 0).UTC().Format("2006-01-02 15:04")
		},
		"snippet": func(content string) string {
			snippet, err := markdownService.Snippet(content, snippetSize)
			if err != nil {
				return ""
			}
			return snippet
		},
	}
	return &FrontendService{
		NoteService:     noteService,
		MarkdownService: markdownService,
		templates:       template.Must(template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")),
	}
}

func (s *FrontendService) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/", s.index)
	echoServer.GET("/all-notes", s.allNotes)
	echoServer.GET("/notes/:id", s.note)
	echoServer.GET("/graph", s.graph)
	echoServer.GET("/signin", s.signIn)
}

type pageData struct {
	Title string
	User  *store.User
	// Only one of the following is set per page.
	Notes   []*pageNote
	Tags    []*store.TagCount
	Note    *pageNote
	Related []*note.RelatedNote
	Body    template.HTML
	Error   string
}

type pageNote struct {
	*store.Note
	TagList []string
}

func newPageNote(n *store.Note) *pageNote {
	return &pageNote{Note: n, TagList: tagset.Normalize(n.Tags).Sorted()}
}

func (s *FrontendService) index(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.GetUser(ctx)
	if user == nil {
		return s.render(c, http.StatusOK, "signin.html", &pageData{Title: "Sign in"})
	}

	notes, err := s.NoteService.ListNotes(ctx, &note.ListNotesRequest{Limit: recentNoteCount})
	if err != nil {
		return s.renderError(c, user, err)
	}
	tags, err := s.NoteService.ListTags(ctx)
	if err != nil {
		return s.renderError(c, user, err)
	}
	return s.render(c, http.StatusOK, "index.html", &pageData{
		Title: "Notes",
		User:  user,
		Notes: toPageNotes(notes),
		Tags:  tags,
	})
}

func (s *FrontendService) allNotes(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.GetUser(ctx)
	if user == nil {
		return s.render(c, http.StatusOK, "signin.html", &pageData{Title: "Sign in"})
	}

	notes, err := s.NoteService.ListNotes(ctx, &note.ListNotesRequest{Tag: c.QueryParam("tag")})
	if err != nil {
		return s.renderError(c, user, err)
	}
	return s.render(c, http.StatusOK, "all_notes.html", &pageData{
		Title: "All notes",
		User:  user,
		Notes: toPageNotes(notes),
	})
}

func (s *FrontendService) note(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.GetUser(ctx)
	if user == nil {
		return s.render(c, http.StatusOK, "signin.html", &pageData{Title: "Sign in"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return s.renderError(c, user, errs.InvalidArgument("invalid note id"))
	}
	n, err := s.NoteService.GetNote(ctx, int32(id))
	if err != nil {
		return s.renderError(c, user, err)
	}
	related, err := s.NoteService.ListRelatedNotes(ctx, n.ID, 0)
	if err != nil {
		return s.renderError(c, user, err)
	}
	body, err := s.MarkdownService.RenderHTML(n.Content)
	if err != nil {
		return s.renderError(c, user, errs.DataAccess(err))
	}
	return s.render(c, http.StatusOK, "note.html", &pageData{
		Title:   n.Title,
		User:    user,
		Note:    newPageNote(n),
		Related: related,
		// Raw HTML in note content is dropped by the renderer.
		Body: template.HTML(body),
	})
}

func (s *FrontendService) graph(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return s.render(c, http.StatusOK, "signin.html", &pageData{Title: "Sign in"})
	}
	return s.render(c, http.StatusOK, "graph.html", &pageData{Title: "Graph", User: user})
}

func (s *FrontendService) signIn(c echo.Context) error {
	return s.render(c, http.StatusOK, "signin.html", &pageData{
		Title: "Sign in",
		User:  auth.GetUser(c.Request().Context()),
	})
}

func (s *FrontendService) renderError(c echo.Context, user *store.User, err error) error {
	code := errs.CodeOf(err)
	return s.render(c, errs.HTTPStatus(code), "error.html", &pageData{
		Title: "Error",
		User:  user,
		Error: errs.PublicMessage(err),
	})
}

func (s *FrontendService) render(c echo.Context, status int, name string, data *pageData) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return errors.Wrapf(err, "failed to render %s", name)
	}
	return c.HTMLBlob(status, buf.Bytes())
}

func toPageNotes(notes []*store.Note) []*pageNote {
	list := make([]*pageNote, 0, len(notes))
	for _, n := range notes {
		list = append(list, newPageNote(n))
	}
	return list
}
