package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/internal/tagset"
	"github.com/hrygo/notegraph/store"
)

func (d *DB) CreateNote(ctx context.Context, create *store.Note) (*store.Note, error) {
	fields := []string{"creator_id", "title", "content", "tags"}
	args := []any{create.CreatorID, create.Title, create.Content, create.Tags}
	if create.CreatedTs != 0 {
		fields, args = append(fields, "created_ts"), append(args, create.CreatedTs)
	}
	if create.UpdatedTs != 0 {
		fields, args = append(fields, "updated_ts"), append(args, create.UpdatedTs)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	stmt := "INSERT INTO notes (" + strings.Join(fields, ", ") + ") VALUES (" + placeholders(len(args)) + ") RETURNING id, created_ts, updated_ts"
	if err := tx.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert note")
	}
	if err := insertTags(ctx, tx, create.ID, create.Tags); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit note")
	}
	return create, nil
}

func (d *DB) ListNotes(ctx context.Context, find *store.FindNote) ([]*store.Note, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "notes.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "notes.creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Tag; v != nil {
		where, args = append(where, "EXISTS (SELECT 1 FROM tags WHERE tags.note_id = notes.id AND tags.name = "+placeholder(len(args)+1)+")"), append(args, *v)
	}

	creatorColumn, join := "''", ""
	if find.WithCreator {
		creatorColumn, join = "COALESCE(users.username, '')", "LEFT JOIN users ON users.id = notes.creator_id"
	}

	query := `SELECT notes.id, notes.creator_id, notes.created_ts, notes.updated_ts, notes.title, notes.content, notes.tags, ` + creatorColumn + `
		FROM notes ` + join + `
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY notes.updated_ts DESC, notes.id DESC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query notes")
	}
	defer rows.Close()

	list := make([]*store.Note, 0)
	for rows.Next() {
		note := &store.Note{}
		if err := rows.Scan(
			&note.ID,
			&note.CreatorID,
			&note.CreatedTs,
			&note.UpdatedTs,
			&note.Title,
			&note.Content,
			&note.Tags,
			&note.CreatorName,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan note")
		}
		list = append(list, note)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) UpdateNote(ctx context.Context, update *store.UpdateNote) (*store.Note, error) {
	set, args := []string{}, []any{}
	if v := update.UpdatedTs; v != nil {
		set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Content; v != nil {
		set, args = append(set, "content = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Tags; v != nil {
		set, args = append(set, "tags = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	stmt := "UPDATE notes SET " + strings.Join(set, ", ") +
		" WHERE id = " + placeholder(len(args)+1) + " AND creator_id = " + placeholder(len(args)+2)
	args = append(args, update.ID, update.CreatorID)
	result, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update note")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return nil, nil
	}

	if update.Tags != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM tags WHERE note_id = "+placeholder(1), update.ID); err != nil {
			return nil, errors.Wrap(err, "failed to clear note tags")
		}
		if err := insertTags(ctx, tx, update.ID, *update.Tags); err != nil {
			return nil, err
		}
	}

	note := &store.Note{}
	if err := tx.QueryRowContext(ctx,
		"SELECT id, creator_id, created_ts, updated_ts, title, content, tags FROM notes WHERE id = "+placeholder(1),
		update.ID,
	).Scan(
		&note.ID,
		&note.CreatorID,
		&note.CreatedTs,
		&note.UpdatedTs,
		&note.Title,
		&note.Content,
		&note.Tags,
	); err != nil {
		return nil, errors.Wrap(err, "failed to reload note")
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit note")
	}
	return note, nil
}

// insertTags writes one row per normalized tag of raw.
func insertTags(ctx context.Context, tx *sql.Tx, noteID int32, raw string) error {
	for _, name := range tagset.Normalize(raw).Sorted() {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tags (note_id, name) VALUES ("+placeholders(2)+")",
			noteID, name,
		); err != nil {
			return errors.Wrapf(err, "failed to insert tag %q", name)
		}
	}
	return nil
}
