package v1

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	errs "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/server/service/note"
)

// GetGraph returns the caller's tag co-occurrence graph.
// GET /api/v1/graph?tag=<tag>[,<tag>...]&min_importance=<0..1>
func (s *APIV1Service) GetGraph(c echo.Context) error {
	req := &note.GraphRequest{}
	for _, value := range c.QueryParams()["tag"] {
		for _, tag := range strings.Split(value, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				req.Tags = append(req.Tags, tag)
			}
		}
	}
	if raw := c.QueryParam("min_importance"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) {
			return errs.InvalidArgument("min_importance must be a number")
		}
		req.MinImportance = v
	}

	g, err := s.NoteService.GetGraph(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, g)
}
