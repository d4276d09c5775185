package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ListTags returns the caller's normalized tags with their note counts.
// GET /api/v1/tags
func (s *APIV1Service) ListTags(c echo.Context) error {
	tags, err := s.NoteService.ListTags(c.Request().Context())
	if err != nil {
		return err
	}
	response := make([]*Tag, 0, len(tags))
	for _, t := range tags {
		response = append(response, &Tag{Name: t.Name, Count: t.Count})
	}
	return c.JSON(http.StatusOK, response)
}
