// Package mongodb implements the repositories on top of a MongoDB deployment.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"exercise-tracker/internal/repository"
)

const (
	usersCollection     = "users"
	exercisesCollection = "exercises"
)

// Store is the MongoDB-backed repository.Store.
type Store struct {
	client    *mongo.Client
	users     repository.UserRepository
	exercises repository.ExerciseRepository
}

// Connect dials the deployment at uri and verifies it with a ping against the primary.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongodb connection string is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(database)
	return &Store{
		client:    client,
		users:     NewUserRepository(db),
		exercises: NewExerciseRepository(db),
	}, nil
}

func (s *Store) Users() repository.UserRepository         { return s.users }
func (s *Store) Exercises() repository.ExerciseRepository { return s.exercises }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
