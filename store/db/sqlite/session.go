package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/notegraph/store"
)

func (d *DB) CreateSession(ctx context.Context, create *store.Session) (*store.Session, error) {
	stmt := "INSERT INTO session (id, user_id, expires_ts) VALUES (" + placeholders(3) + ") RETURNING created_ts"
	if err := d.db.QueryRowContext(ctx, stmt, create.ID, create.UserID, create.ExpiresTs).Scan(&create.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to insert session")
	}
	return create, nil
}

func (d *DB) ListSessions(ctx context.Context, find *store.FindSession) ([]*store.Session, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	rows, err := d.db.QueryContext(ctx, `SELECT id, user_id, created_ts, expires_ts
		FROM session
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY created_ts DESC`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query sessions")
	}
	defer rows.Close()

	list := make([]*store.Session, 0)
	for rows.Next() {
		var session store.Session
		if err := rows.Scan(&session.ID, &session.UserID, &session.CreatedTs, &session.ExpiresTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan session")
		}
		list = append(list, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) DeleteSession(ctx context.Context, delete *store.DeleteSession) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM session WHERE id = "+placeholder(1), delete.ID); err != nil {
		return errors.Wrap(err, "failed to delete session")
	}
	return nil
}

func (d *DB) DeleteExpiredSessions(ctx context.Context, ts int64) (int64, error) {
	result, err := d.db.ExecContext(ctx, "DELETE FROM session WHERE expires_ts < "+placeholder(1), ts)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired sessions")
	}
	return result.RowsAffected()
}
