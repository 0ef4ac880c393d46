package service

import (
	"context"
	"errors"
	"strings"

	"exercise-tracker/internal/domain"
	"exercise-tracker/internal/observability"
	"exercise-tracker/internal/repository"
)

// UserService describes user lifecycle operations.
type UserService interface {
	// CreateUser returns the existing user when the username is already taken.
	CreateUser(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	// DeleteUser removes the user and its exercises, returning the removed user
	// and the number of exercises deleted with it.
	DeleteUser(ctx context.Context, id string) (*domain.User, int64, error)
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) CreateUser(ctx context.Context, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, validationError("username is required")
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, internalError("lookup user", err)
	}

	user := &domain.User{Username: username}
	if _, err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, domain.ErrDuplicateUsername) {
			return nil, internalError("create user", err)
		}
		// lost the race with a concurrent create; the unique constraint kept one record
		existing, err := s.users.GetByUsername(ctx, username)
		if err != nil {
			return nil, internalError("lookup user after duplicate", err)
		}
		return existing, nil
	}

	observability.RecordUserCreated()
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, internalError("list users", err)
	}
	return users, nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) (*domain.User, int64, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, 0, userNotFound("delete user", err)
		}
		return nil, 0, internalError("lookup user", err)
	}

	removed, err := s.users.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, 0, userNotFound("delete user", err)
		}
		return nil, 0, internalError("delete user", err)
	}

	observability.RecordCascadeDelete(removed)
	return user, removed, nil
}
