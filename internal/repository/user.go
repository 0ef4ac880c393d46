package repository

import (
	"context"

	"exercise-tracker/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (string, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	// Delete removes the user together with every exercise it owns and returns
	// the number of exercises removed. The user is kept if the exercises cannot
	// be removed.
	Delete(ctx context.Context, id string) (int64, error)
}
