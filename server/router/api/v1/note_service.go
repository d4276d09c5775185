package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/notegraph/internal/tagset"
	errs "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/server/service/note"
	"github.com/hrygo/notegraph/store"
)

type Note struct {
	ID       int32  `json:"id"`
	UserID   int32  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	// Tags is the tag string as written; TagList is its normalized form.
	Tags      string   `json:"tags"`
	TagList   []string `json:"tag_list"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

type RelatedNote struct {
	Note       *Note    `json:"note"`
	SharedTags []string `json:"shared_tags"`
}

type CreateNoteResponse struct {
	ID int32 `json:"id"`
}

// ListNotes returns the caller's notes, most recently updated first.
// GET /api/v1/notes?filter=<cel>&tag=<tag>&limit=<n>
func (s *APIV1Service) ListNotes(c echo.Context) error {
	limit, err := parseLimit(c.QueryParam("limit"))
	if err != nil {
		return err
	}
	notes, err := s.NoteService.ListNotes(c.Request().Context(), &note.ListNotesRequest{
		Filter: c.QueryParam("filter"),
		Tag:    c.QueryParam("tag"),
		Limit:  limit,
	})
	if err != nil {
		return err
	}

	response := make([]*Note, 0, len(notes))
	for _, n := range notes {
		response = append(response, convertNoteFromStore(n))
	}
	return c.JSON(http.StatusOK, response)
}

// CreateNote stores a new note.
// POST /api/v1/notes
func (s *APIV1Service) CreateNote(c echo.Context) error {
	var req note.WriteNoteRequest
	if err := c.Bind(&req); err != nil {
		return errs.InvalidArgument("invalid request body")
	}
	created, err := s.NoteService.CreateNote(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, CreateNoteResponse{ID: created.ID})
}

// GetNote returns one of the caller's notes.
// GET /api/v1/notes/:id
func (s *APIV1Service) GetNote(c echo.Context) error {
	id, err := parseNoteID(c)
	if err != nil {
		return err
	}
	n, err := s.NoteService.GetNote(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertNoteFromStore(n))
}

// UpdateNote overwrites one of the caller's notes.
// PUT /api/v1/notes/:id
func (s *APIV1Service) UpdateNote(c echo.Context) error {
	id, err := parseNoteID(c)
	if err != nil {
		return err
	}
	var req note.WriteNoteRequest
	if err := c.Bind(&req); err != nil {
		return errs.InvalidArgument("invalid request body")
	}
	updated, err := s.NoteService.UpdateNote(c.Request().Context(), id, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertNoteFromStore(updated))
}

// ListRelatedNotes returns the caller's notes sharing tags with a note.
// GET /api/v1/notes/:id/related?limit=<n>
func (s *APIV1Service) ListRelatedNotes(c echo.Context) error {
	id, err := parseNoteID(c)
	if err != nil {
		return err
	}
	limit, err := parseLimit(c.QueryParam("limit"))
	if err != nil {
		return err
	}
	related, err := s.NoteService.ListRelatedNotes(c.Request().Context(), id, limit)
	if err != nil {
		return err
	}

	response := make([]*RelatedNote, 0, len(related))
	for _, r := range related {
		response = append(response, &RelatedNote{
			Note:       convertNoteFromStore(r.Note),
			SharedTags: r.SharedTags,
		})
	}
	return c.JSON(http.StatusOK, response)
}

func parseNoteID(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil || id <= 0 {
		return 0, errs.InvalidArgument("invalid note id")
	}
	return int32(id), nil
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errs.InvalidArgument("limit must be a non-negative integer")
	}
	return limit, nil
}

func convertNoteFromStore(n *store.Note) *Note {
	return &Note{
		ID:        n.ID,
		UserID:    n.CreatorID,
		Username:  n.CreatorName,
		Title:     n.Title,
		Content:   n.Content,
		Tags:      n.Tags,
		TagList:   tagset.Normalize(n.Tags).Sorted(),
		CreatedAt: formatTs(n.CreatedTs),
		UpdatedAt: formatTs(n.UpdatedTs),
	}
}

func formatTs(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}
