package repository

import (
	"context"

	"neuroscan/internal/domain"
)

// UserRepository defines persistence operations for the credential store.
type UserRepository interface {
	Init(ctx context.Context) error
	// Insert stores a new user. An existing username yields
	// domain.ErrUserExists and leaves the stored row untouched.
	Insert(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}
