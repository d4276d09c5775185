package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/store"
)

func (d *DB) ListTagCounts(ctx context.Context, find *store.FindTag) ([]*store.TagCount, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT tags.name, COUNT(*) AS note_count
		FROM tags
		JOIN notes ON notes.id = tags.note_id
		WHERE notes.creator_id = `+placeholder(1)+`
		GROUP BY tags.name
		ORDER BY note_count DESC, tags.name ASC`, find.CreatorID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query tag counts")
	}
	defer rows.Close()

	list := make([]*store.TagCount, 0)
	for rows.Next() {
		var tag store.TagCount
		if err := rows.Scan(&tag.Name, &tag.Count); err != nil {
			return nil, errors.Wrap(err, "failed to scan tag count")
		}
		list = append(list, &tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
