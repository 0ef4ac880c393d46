package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"exercise-tracker/internal/domain"
	"exercise-tracker/internal/observability"
	"exercise-tracker/internal/repository"
)

// AddExerciseInput carries the raw request values for a new log entry.
type AddExerciseInput struct {
	UserID      string
	Description string
	Duration    string
	Date        string
}

// LogInput carries the raw request values of a log query.
type LogInput struct {
	UserID string
	From   string
	To     string
	Limit  string
}

// Log is a user together with the selected exercises.
type Log struct {
	User      domain.User
	Exercises []domain.Exercise
}

// ExerciseService coordinates exercise logging and log queries.
type ExerciseService interface {
	AddExercise(ctx context.Context, input AddExerciseInput) (*domain.User, *domain.Exercise, error)
	GetLog(ctx context.Context, input LogInput) (*Log, error)
}

type Option func(*exerciseService)

// WithClock replaces the time source used for entries without a date.
func WithClock(now func() time.Time) Option {
	return func(s *exerciseService) {
		s.now = now
	}
}

type exerciseService struct {
	users     repository.UserRepository
	exercises repository.ExerciseRepository
	now       func() time.Time
}

func NewExerciseService(users repository.UserRepository, exercises repository.ExerciseRepository, opts ...Option) ExerciseService {
	s := &exerciseService{
		users:     users,
		exercises: exercises,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *exerciseService) AddExercise(ctx context.Context, input AddExerciseInput) (*domain.User, *domain.Exercise, error) {
	user, err := s.lookupUser(ctx, "add exercise", input.UserID)
	if err != nil {
		return nil, nil, err
	}

	date := s.now().UTC()
	if strings.TrimSpace(input.Date) != "" {
		parsed, err := ParseDate(input.Date)
		if err != nil {
			return nil, nil, validationError("Invalid Date")
		}
		date = parsed
	}

	duration, err := ParseLeadingInt(input.Duration)
	if err != nil {
		return nil, nil, validationError("duration must be a number")
	}

	exercise := &domain.Exercise{
		UserID:      user.ID,
		Description: input.Description,
		Duration:    duration,
		Date:        date,
	}
	if _, err := s.exercises.Create(ctx, exercise); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, userNotFound("add exercise", err)
		}
		return nil, nil, internalError("create exercise", err)
	}

	observability.RecordExerciseLogged(exercise.Date)
	return user, exercise, nil
}

func (s *exerciseService) GetLog(ctx context.Context, input LogInput) (*Log, error) {
	user, err := s.lookupUser(ctx, "get log", input.UserID)
	if err != nil {
		return nil, err
	}

	q := domain.LogQuery{UserID: user.ID}
	if strings.TrimSpace(input.From) != "" {
		from, err := ParseDate(input.From)
		if err != nil {
			return nil, validationError("Invalid Date")
		}
		q.From = &from
	}
	if strings.TrimSpace(input.To) != "" {
		to, err := ParseDate(input.To)
		if err != nil {
			return nil, validationError("Invalid Date")
		}
		q.To = &to
	}
	if strings.TrimSpace(input.Limit) != "" {
		limit, err := ParseLeadingInt(input.Limit)
		if err != nil || limit < 0 {
			return nil, validationError("limit must be a non-negative integer")
		}
		q.Limit = limit
	}

	exercises, err := s.exercises.Query(ctx, q)
	if err != nil {
		return nil, internalError("query exercises", err)
	}
	return &Log{User: *user, Exercises: exercises}, nil
}

func (s *exerciseService) lookupUser(ctx context.Context, op, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, userNotFound(op, err)
		}
		return nil, internalError(op, err)
	}
	return user, nil
}
