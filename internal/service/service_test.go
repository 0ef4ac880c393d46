package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exercise-tracker/internal/domain"
	"exercise-tracker/internal/repository"
	"exercise-tracker/internal/repository/sqlite"
)

var fixedNow = time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)

func newStore(t *testing.T) repository.Store {
	t.Helper()
	store, err := sqlite.NewStore(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	require.NoError(t, repository.Init(context.Background(), store))
	return store
}

func newServices(t *testing.T) (UserService, ExerciseService) {
	store := newStore(t)
	return NewUserService(store.Users()),
		NewExerciseService(store.Users(), store.Exercises(), WithClock(func() time.Time { return fixedNow }))
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	require.Error(t, err)
	var svcErr *Error
	require.True(t, errors.As(err, &svcErr), "expected service error, got %T", err)
	require.Equal(t, kind, svcErr.Kind)
	return svcErr
}

func TestCreateUserReturnsExistingUser(t *testing.T) {
	users, _ := newServices(t)
	ctx := context.Background()

	first, err := users.CreateUser(ctx, "fcc_test")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := users.CreateUser(ctx, "  fcc_test ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "fcc_test", second.Username)

	all, err := users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateUserRequiresUsername(t *testing.T) {
	users, _ := newServices(t)

	_, err := users.CreateUser(context.Background(), "   ")
	svcErr := requireKind(t, err, KindValidation)
	assert.Equal(t, "username is required", svcErr.Message)
}

// racingUsers reports the username as free, then loses the insert to a
// concurrent writer.
type racingUsers struct {
	repository.UserRepository
	winner  domain.User
	lookups int
}

func (r *racingUsers) GetByUsername(context.Context, string) (*domain.User, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, domain.ErrUserNotFound
	}
	winner := r.winner
	return &winner, nil
}

func (r *racingUsers) Create(context.Context, *domain.User) (string, error) {
	return "", domain.ErrDuplicateUsername
}

func TestCreateUserDuplicateRaceReturnsWinner(t *testing.T) {
	repo := &racingUsers{winner: domain.User{ID: "u-1", Username: "alice"}}
	users := NewUserService(repo)

	user, err := users.CreateUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, 2, repo.lookups)
}

type brokenUsers struct {
	repository.UserRepository
	err error
}

func (r brokenUsers) GetByID(context.Context, string) (*domain.User, error) {
	return nil, r.err
}

func (r brokenUsers) List(context.Context) ([]domain.User, error) {
	return nil, r.err
}

func TestInternalErrorsHideCause(t *testing.T) {
	cause := errors.New("connection reset")
	repo := brokenUsers{err: cause}
	exercises := NewExerciseService(repo, nil)

	_, err := exercises.GetLog(context.Background(), LogInput{UserID: "u-1"})
	svcErr := requireKind(t, err, KindInternal)
	assert.Equal(t, MsgServerError, svcErr.Message)
	assert.ErrorIs(t, err, cause)

	_, err = NewUserService(repo).ListUsers(context.Background())
	requireKind(t, err, KindInternal)
}

func TestAddExercise(t *testing.T) {
	users, exercises := newServices(t)
	ctx := context.Background()

	user, err := users.CreateUser(ctx, "runner")
	require.NoError(t, err)

	t.Run("explicit date", func(t *testing.T) {
		owner, exercise, err := exercises.AddExercise(ctx, AddExerciseInput{
			UserID:      user.ID,
			Description: "test",
			Duration:    "60",
			Date:        "2023-01-01",
		})
		require.NoError(t, err)
		assert.Equal(t, user.ID, owner.ID)
		assert.Equal(t, "runner", owner.Username)
		assert.Equal(t, 60, exercise.Duration)
		assert.Equal(t, "Sun Jan 01 2023", exercise.Date.Format(DisplayDateLayout))
		assert.NotEmpty(t, exercise.ID)
	})

	t.Run("missing date uses clock", func(t *testing.T) {
		_, exercise, err := exercises.AddExercise(ctx, AddExerciseInput{
			UserID:      user.ID,
			Description: "walk",
			Duration:    "15",
		})
		require.NoError(t, err)
		assert.True(t, fixedNow.Equal(exercise.Date))
	})

	t.Run("duration with trailing text", func(t *testing.T) {
		_, exercise, err := exercises.AddExercise(ctx, AddExerciseInput{
			UserID:   user.ID,
			Duration: "30min",
			Date:     "2023-02-01",
		})
		require.NoError(t, err)
		assert.Equal(t, 30, exercise.Duration)
	})

	t.Run("invalid duration", func(t *testing.T) {
		_, _, err := exercises.AddExercise(ctx, AddExerciseInput{
			UserID:   user.ID,
			Duration: "abc",
		})
		requireKind(t, err, KindValidation)
	})

	t.Run("invalid date", func(t *testing.T) {
		_, _, err := exercises.AddExercise(ctx, AddExerciseInput{
			UserID:   user.ID,
			Duration: "10",
			Date:     "yesterday",
		})
		svcErr := requireKind(t, err, KindValidation)
		assert.Equal(t, "Invalid Date", svcErr.Message)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := exercises.AddExercise(ctx, AddExerciseInput{
			UserID:   "does-not-exist",
			Duration: "10",
		})
		svcErr := requireKind(t, err, KindNotFound)
		assert.Equal(t, MsgUserNotFound, svcErr.Message)

		for _, in := range []AddExerciseInput{
			{UserID: "does-not-exist", Duration: "10", Date: "yesterday"},
			{UserID: "does-not-exist", Duration: "abc"},
			{UserID: "does-not-exist", Duration: "abc", Date: "yesterday"},
		} {
			_, _, err := exercises.AddExercise(ctx, in)
			svcErr := requireKind(t, err, KindNotFound)
			assert.Equal(t, MsgUserNotFound, svcErr.Message)
		}
	})
}

func TestGetLog(t *testing.T) {
	users, exercises := newServices(t)
	ctx := context.Background()

	user, err := users.CreateUser(ctx, "logger")
	require.NoError(t, err)

	for _, in := range []AddExerciseInput{
		{Description: "late", Duration: "20", Date: "2023-02-01"},
		{Description: "early", Duration: "10", Date: "2023-01-01"},
		{Description: "middle-a", Duration: "15", Date: "2023-01-15"},
		{Description: "middle-b", Duration: "16", Date: "2023-01-15"},
	} {
		in.UserID = user.ID
		_, _, err := exercises.AddExercise(ctx, in)
		require.NoError(t, err)
	}

	descriptions := func(log *Log) []string {
		out := make([]string, len(log.Exercises))
		for i, exercise := range log.Exercises {
			out[i] = exercise.Description
		}
		return out
	}

	tests := []struct {
		name  string
		input LogInput
		want  []string
	}{
		{
			name:  "all entries by date then insertion",
			input: LogInput{},
			want:  []string{"early", "middle-a", "middle-b", "late"},
		},
		{
			name:  "from is inclusive",
			input: LogInput{From: "2023-01-15"},
			want:  []string{"middle-a", "middle-b", "late"},
		},
		{
			name:  "to is inclusive",
			input: LogInput{To: "2023-01-15"},
			want:  []string{"early", "middle-a", "middle-b"},
		},
		{
			name:  "range and limit",
			input: LogInput{From: "2023-01-10", To: "2023-03-01", Limit: "2"},
			want:  []string{"middle-a", "middle-b"},
		},
		{
			name:  "zero limit returns everything",
			input: LogInput{Limit: "0"},
			want:  []string{"early", "middle-a", "middle-b", "late"},
		},
		{
			name:  "empty range",
			input: LogInput{From: "2024-01-01"},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			in.UserID = user.ID
			log, err := exercises.GetLog(ctx, in)
			require.NoError(t, err)
			assert.Equal(t, user.ID, log.User.ID)
			assert.Equal(t, tt.want, descriptions(log))
		})
	}

	t.Run("invalid bounds", func(t *testing.T) {
		_, err := exercises.GetLog(ctx, LogInput{UserID: user.ID, From: "not-a-date"})
		requireKind(t, err, KindValidation)

		_, err = exercises.GetLog(ctx, LogInput{UserID: user.ID, Limit: "-1"})
		requireKind(t, err, KindValidation)

		_, err = exercises.GetLog(ctx, LogInput{UserID: user.ID, Limit: "many"})
		requireKind(t, err, KindValidation)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := exercises.GetLog(ctx, LogInput{UserID: "missing"})
		requireKind(t, err, KindNotFound)
	})
}

func TestDeleteUserRemovesExercises(t *testing.T) {
	users, exercises := newServices(t)
	ctx := context.Background()

	doomed, err := users.CreateUser(ctx, "doomed")
	require.NoError(t, err)
	kept, err := users.CreateUser(ctx, "kept")
	require.NoError(t, err)

	for _, id := range []string{doomed.ID, doomed.ID, kept.ID} {
		_, _, err := exercises.AddExercise(ctx, AddExerciseInput{UserID: id, Description: "x", Duration: "5"})
		require.NoError(t, err)
	}

	removed, count, err := users.DeleteUser(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Equal(t, "doomed", removed.Username)
	assert.EqualValues(t, 2, count)

	_, err = exercises.GetLog(ctx, LogInput{UserID: doomed.ID})
	requireKind(t, err, KindNotFound)

	log, err := exercises.GetLog(ctx, LogInput{UserID: kept.ID})
	require.NoError(t, err)
	assert.Len(t, log.Exercises, 1)

	_, _, err = users.DeleteUser(ctx, doomed.ID)
	requireKind(t, err, KindNotFound)
}

func TestAsError(t *testing.T) {
	assert.Nil(t, AsError(nil))

	wrapped := AsError(errors.New("boom"))
	assert.Equal(t, KindInternal, wrapped.Kind)
	assert.Equal(t, MsgServerError, wrapped.Message)

	original := validationError("bad")
	assert.Same(t, original, AsError(original))
	assert.Equal(t, "not_found", KindNotFound.String())
}
