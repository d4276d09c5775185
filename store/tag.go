package store

import (
	"context"
)

// TagCount is one normalized tag and how many of the creator's notes carry it.
type TagCount struct {
	Name  string
	Count int
}

type FindTag struct {
	CreatorID int32
}

// ListTagCounts reads the per-tag side table, ordered by count then name.
func (s *Store) ListTagCounts(ctx context.Context, find *FindTag) ([]*TagCount, error) {
	return s.driver.ListTagCounts(ctx, find)
}
