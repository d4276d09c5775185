package note

import (
	"context"

	"github.com/hrygo/notegraph/store"
)

// Store is the part of the store the note service depends on.
// *store.Store satisfies it.
type Store interface {
	CreateNote(ctx context.Context, create *store.Note) (*store.Note, error)
	ListNotes(ctx context.Context, find *store.FindNote) ([]*store.Note, error)
	GetNote(ctx context.Context, find *store.FindNote) (*store.Note, error)
	UpdateNote(ctx context.Context, update *store.UpdateNote) (*store.Note, error)
	ListTagCounts(ctx context.Context, find *store.FindTag) ([]*store.TagCount, error)
}

// WriteNoteRequest carries the fields of a create or update.
// A nil field was absent from the request; Tags may be an empty, non-nil slice.
type WriteNoteRequest struct {
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	Tags    []string `json:"tags"`
}

// ListNotesRequest narrows a note listing.
type ListNotesRequest struct {
	// Filter is a CEL expression over title, content, tags, created_ts and updated_ts.
	Filter string
	// Tag keeps notes carrying this tag (normalized before matching).
	Tag string
	// Limit caps the result; zero means no cap.
	Limit int
}

// GraphRequest narrows the graph.
type GraphRequest struct {
	Tags          []string
	MinImportance float64
}

// RelatedNote is a note sharing tags with another note.
type RelatedNote struct {
	Note       *store.Note
	SharedTags []string
}
