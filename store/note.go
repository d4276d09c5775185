package store

import (
	"context"

	"github.com/pkg/errors"
)

type Note struct {
	// ID is the system generated unique identifier for the note.
	ID int32

	// Standard fields
	CreatorID int32
	CreatedTs int64
	UpdatedTs int64

	// Domain specific fields
	Title   string
	Content string
	// Tags is the raw, space-joined tag string as written by the owner.
	Tags string

	// Composed field, only filled when the note is fetched with its creator.
	CreatorName string
}

type FindNote struct {
	ID        *int32
	CreatorID *int32
	// Tag matches notes carrying this normalized tag.
	Tag *string

	// WithCreator joins the creator's username into CreatorName.
	WithCreator bool

	Limit *int
}

type UpdateNote struct {
	ID int32
	// CreatorID scopes the update; a note owned by someone else is left untouched.
	CreatorID int32
	UpdatedTs *int64
	Title     *string
	Content   *string
	Tags      *string
}

// CreateNote writes the note row and its per-tag rows in one transaction.
func (s *Store) CreateNote(ctx context.Context, create *Note) (*Note, error) {
	if create.Title == "" {
		return nil, errors.New("note title is required")
	}
	return s.driver.CreateNote(ctx, create)
}

// ListNotes returns notes ordered by most recently updated first.
func (s *Store) ListNotes(ctx context.Context, find *FindNote) ([]*Note, error) {
	return s.driver.ListNotes(ctx, find)
}

// GetNote returns the first note matching find, or nil when none does.
func (s *Store) GetNote(ctx context.Context, find *FindNote) (*Note, error) {
	limit := 1
	one := *find
	one.Limit = &limit
	list, err := s.ListNotes(ctx, &one)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateNote applies update and rewrites the per-tag rows in one transaction.
// It returns nil without error when no note with that ID belongs to update.CreatorID.
func (s *Store) UpdateNote(ctx context.Context, update *UpdateNote) (*Note, error) {
	return s.driver.UpdateNote(ctx, update)
}
