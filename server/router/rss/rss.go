// Package rss serves the caller's recent notes as an RSS 2.0 feed.
package rss

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/notegraph/internal/profile"
	"github.com/hrygo/notegraph/plugin/markdown"
	"github.com/hrygo/notegraph/server/auth"
	"github.com/hrygo/notegraph/server/service/note"
)

const (
	maxRSSItemCount       = 20
	maxRSSItemSnippetSize = 256
)

type RSSService struct {
	Profile         *profile.Profile
	NoteService     *note.Service
	MarkdownService *markdown.Service
}

func NewRSSService(profile *profile.Profile, noteService *note.Service, markdownService *markdown.Service) *RSSService {
	return &RSSService{
		Profile:         profile,
		NoteService:     noteService,
		MarkdownService: markdownService,
	}
}

func (s *RSSService) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/api/v1/notes.rss", s.GetNotesRSS)
}

// GetNotesRSS returns the caller's most recently updated notes.
// GET /api/v1/notes.rss
func (s *RSSService) GetNotesRSS(c echo.Context) error {
	ctx := c.Request().Context()
	notes, err := s.NoteService.ListNotes(ctx, &note.ListNotesRequest{Limit: maxRSSItemCount})
	if err != nil {
		return err
	}

	baseURL := s.baseURL(c)
	feed := &feeds.Feed{
		Title:       "Notegraph",
		Link:        &feeds.Link{Href: baseURL},
		Description: "Recently updated notes",
		Created:     time.Now(),
	}
	if user := auth.GetUser(ctx); user != nil {
		feed.Author = &feeds.Author{Name: user.Username}
		feed.Description = fmt.Sprintf("Recently updated notes of %s", user.Username)
	}
	if len(notes) > 0 {
		feed.Updated = time.Unix(notes[0].UpdatedTs, 0)
	}

	feed.Items = make([]*feeds.Item, 0, len(notes))
	for _, n := range notes {
		snippet, err := s.MarkdownService.Snippet(n.Content, maxRSSItemSnippetSize)
		if err != nil {
			slog.Warn("failed to build note snippet", slog.Int("note_id", int(n.ID)), slog.String("error", err.Error()))
			snippet = ""
		}
		link := fmt.Sprintf("%s/notes/%d", baseURL, n.ID)
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          link,
			Title:       n.Title,
			Link:        &feeds.Link{Href: link},
			Description: snippet,
			Created:     time.Unix(n.CreatedTs, 0),
			Updated:     time.Unix(n.UpdatedTs, 0),
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

func (s *RSSService) baseURL(c echo.Context) string {
	if s.Profile.InstanceURL != "" {
		return strings.TrimSuffix(s.Profile.InstanceURL, "/")
	}
	return c.Scheme() + "://" + c.Request().Host
}
