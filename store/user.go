package store

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
)

// ErrUserEmailTaken is returned by CreateUser when another user already has the email.
var ErrUserEmailTaken = errors.New("email is already registered")

type User struct {
	ID int32

	// Standard fields
	CreatedTs int64
	UpdatedTs int64

	// Domain specific fields
	Username     string
	Email        string
	PasswordHash string
}

type FindUser struct {
	ID    *int32
	Email *string
}

func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	user, err := s.driver.CreateUser(ctx, create)
	if err != nil {
		return nil, err
	}
	s.userCache.Set(ctx, strconv.Itoa(int(user.ID)), user)
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context, find *FindUser) ([]*User, error) {
	list, err := s.driver.ListUsers(ctx, find)
	if err != nil {
		return nil, err
	}
	for _, user := range list {
		s.userCache.Set(ctx, strconv.Itoa(int(user.ID)), user)
	}
	return list, nil
}

// GetUser returns the matching user or nil. Lookups by ID are served from cache when possible.
func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	if find.ID != nil && find.Email == nil {
		if cached, ok := s.userCache.Get(ctx, strconv.Itoa(int(*find.ID))); ok {
			if user, ok := cached.(*User); ok {
				return user, nil
			}
		}
	}

	list, err := s.ListUsers(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}
