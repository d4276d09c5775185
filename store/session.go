package store

import (
	"context"
)

// Session is a server-side sign-in record referenced by the session cookie.
type Session struct {
	ID        string
	UserID    int32
	CreatedTs int64
	ExpiresTs int64
}

type FindSession struct {
	ID     *string
	UserID *int32
}

type DeleteSession struct {
	ID string
}

func (s *Store) CreateSession(ctx context.Context, create *Session) (*Session, error) {
	return s.driver.CreateSession(ctx, create)
}

func (s *Store) GetSession(ctx context.Context, find *FindSession) (*Session, error) {
	list, err := s.driver.ListSessions(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteSession(ctx context.Context, delete *DeleteSession) error {
	return s.driver.DeleteSession(ctx, delete)
}

// DeleteExpiredSessions removes sessions that expired before ts and reports how many.
func (s *Store) DeleteExpiredSessions(ctx context.Context, ts int64) (int64, error) {
	return s.driver.DeleteExpiredSessions(ctx, ts)
}
