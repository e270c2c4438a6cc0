package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/identity-service/internal/domain"
)

// MemoryUserRepository serves a fixed set of users loaded at startup.
type MemoryUserRepository struct {
	byID       map[string]domain.User
	byUsername map[string]string
}

// NewMemoryUserRepository indexes users, rejecting duplicate ids or usernames.
func NewMemoryUserRepository(users []domain.User) (*MemoryUserRepository, error) {
	r := &MemoryUserRepository{
		byID:       make(map[string]domain.User, len(users)),
		byUsername: make(map[string]string, len(users)),
	}
	for _, user := range users {
		if _, exists := r.byID[user.ID]; exists {
			return nil, fmt.Errorf("duplicate user id %s", user.ID)
		}
		if _, exists := r.byUsername[user.Username]; exists {
			return nil, fmt.Errorf("duplicate username %s", user.Username)
		}
		r.byID[user.ID] = user
		r.byUsername[user.Username] = user.ID
	}
	return r, nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	user.Claims = user.Claims.Clone()
	return &user, nil
}

func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	id, ok := r.byUsername[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}
