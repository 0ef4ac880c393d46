package repository

import (
	"context"

	"exercise-tracker/internal/domain"
)

// ExerciseRepository manages exercise log entries.
type ExerciseRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, exercise *domain.Exercise) (string, error)
	// Query returns the user's exercises ordered by date, oldest first.
	Query(ctx context.Context, q domain.LogQuery) ([]domain.Exercise, error)
}

// Store bundles the repositories of one backend with its connection lifecycle.
type Store interface {
	Users() UserRepository
	Exercises() ExerciseRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Init prepares the schema (tables, indexes) of every repository in the store.
func Init(ctx context.Context, store Store) error {
	if err := store.Users().Init(ctx); err != nil {
		return err
	}
	return store.Exercises().Init(ctx)
}
