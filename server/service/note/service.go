// Package note implements note CRUD, tag listing and the graph endpoint on
// behalf of the authenticated owner found in the request context.
package note

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hrygo/notegraph/internal/tagset"
	"github.com/hrygo/notegraph/plugin/filter"
	"github.com/hrygo/notegraph/plugin/graph"
	"github.com/hrygo/notegraph/server/auth"
	errs "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/store"
)

const (
	defaultRelatedLimit = 5
	maxRelatedLimit     = 20
)

// Service is safe for concurrent use. Concurrent updates of one note are
// last-write-wins.
type Service struct {
	store   Store
	builder *graph.GraphBuilder
	now     func() time.Time
}

// NewService creates a note service; graphConcurrency bounds simultaneous graph builds.
func NewService(s Store, graphConcurrency int) *Service {
	return &Service{
		store:   s,
		builder: graph.NewGraphBuilder(s, graphConcurrency),
		now:     time.Now,
	}
}

// ownerID returns the authenticated owner or UNAUTHORIZED. It must run before any store access.
func ownerID(ctx context.Context) (int32, error) {
	userID := auth.GetUserID(ctx)
	if userID == 0 {
		return 0, errs.Unauthorized()
	}
	return userID, nil
}

// validate reports the required fields missing from req.
func validate(req *WriteNoteRequest) error {
	var missing []string
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		missing = append(missing, "title")
	}
	if req.Content == nil {
		missing = append(missing, "content")
	}
	if req.Tags == nil {
		missing = append(missing, "tags")
	}
	if len(missing) > 0 {
		return errs.InvalidArgumentf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CreateNote stores a new note for the caller. The raw tag string keeps the
// tags as written, joined by single spaces.
func (s *Service) CreateNote(ctx context.Context, req *WriteNoteRequest) (*store.Note, error) {
	userID, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	now := s.now().Unix()
	note, err := s.store.CreateNote(ctx, &store.Note{
		CreatorID: userID,
		CreatedTs: now,
		UpdatedTs: now,
		Title:     strings.TrimSpace(*req.Title),
		Content:   *req.Content,
		Tags:      strings.Join(req.Tags, " "),
	})
	if err != nil {
		return nil, errs.DataAccess(err)
	}
	return note, nil
}

// ListNotes returns the caller's notes, most recently updated first.
func (s *Service) ListNotes(ctx context.Context, req *ListNotesRequest) ([]*store.Note, error) {
	userID, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}

	var program *filter.Program
	if strings.TrimSpace(req.Filter) != "" {
		program, err = filter.Compile(req.Filter)
		if err != nil {
			return nil, errs.InvalidArgument(err.Error())
		}
	}

	find := &store.FindNote{CreatorID: &userID}
	if strings.TrimSpace(req.Tag) != "" {
		tags := tagset.Normalize(req.Tag).Sorted()
		if len(tags) != 1 {
			return nil, errs.InvalidArgument("tag must be a single word")
		}
		find.Tag = &tags[0]
	}
	// The limit applies after filtering.
	if req.Limit > 0 && program == nil {
		find.Limit = &req.Limit
	}

	notes, err := s.store.ListNotes(ctx, find)
	if err != nil {
		return nil, errs.DataAccess(err)
	}
	if program != nil {
		notes, err = applyFilter(program, notes)
		if err != nil {
			return nil, err
		}
		if req.Limit > 0 && len(notes) > req.Limit {
			notes = notes[:req.Limit]
		}
	}
	return notes, nil
}

func applyFilter(program *filter.Program, notes []*store.Note) ([]*store.Note, error) {
	matched := make([]*store.Note, 0, len(notes))
	for _, n := range notes {
		ok, err := program.Match(filter.Note{
			Title:     n.Title,
			Content:   n.Content,
			Tags:      tagset.Normalize(n.Tags).Sorted(),
			CreatedTs: n.CreatedTs,
			UpdatedTs: n.UpdatedTs,
		})
		if err != nil {
			return nil, errs.InvalidArgument(err.Error())
		}
		if ok {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

// GetNote returns one of the caller's notes with its owner's username.
// Notes of other owners are reported as not found.
func (s *Service) GetNote(ctx context.Context, id int32) (*store.Note, error) {
	userID, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	return s.getOwnedNote(ctx, userID, id)
}

func (s *Service) getOwnedNote(ctx context.Context, userID, id int32) (*store.Note, error) {
	note, err := s.store.GetNote(ctx, &store.FindNote{
		ID:          &id,
		CreatorID:   &userID,
		WithCreator: true,
	})
	if err != nil {
		return nil, errs.DataAccess(err)
	}
	if note == nil {
		return nil, errs.NotFound("note not found")
	}
	return note, nil
}

// UpdateNote overwrites title, content and tags of one of the caller's notes.
func (s *Service) UpdateNote(ctx context.Context, id int32, req *WriteNoteRequest) (*store.Note, error) {
	userID, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	now := s.now().Unix()
	title := strings.TrimSpace(*req.Title)
	tags := strings.Join(req.Tags, " ")
	note, err := s.store.UpdateNote(ctx, &store.UpdateNote{
		ID:        id,
		CreatorID: userID,
		UpdatedTs: &now,
		Title:     &title,
		Content:   req.Content,
		Tags:      &tags,
	})
	if err != nil {
		return nil, errs.DataAccess(err)
	}
	if note == nil {
		return nil, errs.NotFound("note not found")
	}
	if user := auth.GetUser(ctx); user != nil {
		note.CreatorName = user.Username
	}
	return note, nil
}

// ListRelatedNotes returns the caller's other notes sharing at least one tag
// with note id, most shared tags first.
func (s *Service) ListRelatedNotes(ctx context.Context, id int32, limit int) ([]*RelatedNote, error) {
	userID, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRelatedLimit
	}
	if limit > maxRelatedLimit {
		limit = maxRelatedLimit
	}

	current, err := s.getOwnedNote(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	currentTags := tagset.Normalize(current.Tags)
	if currentTags.Len() == 0 {
		return []*RelatedNote{}, nil
	}

	candidates, err := s.store.ListNotes(ctx, &store.FindNote{CreatorID: &userID})
	if err != nil {
		return nil, errs.DataAccess(err)
	}

	related := make([]*RelatedNote, 0)
	for _, candidate := range candidates {
		if candidate.ID == current.ID {
			continue
		}
		shared := currentTags.Intersect(tagset.Normalize(candidate.Tags))
		if shared.Len() == 0 {
			continue
		}
		related = append(related, &RelatedNote{Note: candidate, SharedTags: shared.Sorted()})
	}

	// Candidates arrive newest first, so a stable sort keeps that order among ties.
	sort.SliceStable(related, func(i, j int) bool {
		return len(related[i].SharedTags) > len(related[j].SharedTags)
	})
	if len(related) > limit {
		related = related[:limit]
	}
	return related, nil
}

// ListTags returns the caller's tags with how many notes carry each.
func (s *Service) ListTags(ctx context.Context) ([]*store.TagCount, error) {
	userID, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := s.store.ListTagCounts(ctx, &store.FindTag{CreatorID: userID})
	if err != nil {
		return nil, errs.DataAccess(err)
	}
	return tags, nil
}

// GetGraph builds the caller's tag co-occurrence graph from current data.
func (s *Service) GetGraph(ctx context.Context, req *GraphRequest) (*graph.KnowledgeGraph, error) {
	userID, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(req.MinImportance) || req.MinImportance < 0 || req.MinImportance > 1 {
		return nil, errs.InvalidArgument("min_importance must be between 0 and 1")
	}

	g, err := s.builder.GetFilteredGraph(ctx, userID, graph.GraphFilter{
		Tags:          req.Tags,
		MinImportance: req.MinImportance,
	})
	if err != nil {
		return nil, errs.DataAccess(err)
	}
	return g, nil
}
