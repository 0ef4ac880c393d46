package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exercise-tracker/internal/domain"
	"exercise-tracker/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	require.NoError(t, repository.Init(context.Background(), store))
	return store
}

func day(d int) time.Time {
	return time.Date(2023, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestUserRepository(t *testing.T) {
	store := newTestStore(t)
	users := store.Users()
	ctx := context.Background()

	alice := &domain.User{Username: "alice"}
	id, err := users.Create(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, id, alice.ID)

	_, err = users.Create(ctx, &domain.User{Username: "alice"})
	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)

	bob := &domain.User{Username: "bob"}
	_, err = users.Create(ctx, bob)
	require.NoError(t, err)

	got, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, *alice, *got)

	got, err = users.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)

	_, err = users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = users.GetByUsername(ctx, "carol")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.User{*alice, *bob}, all)
}

func TestExerciseRepositoryQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	owner := &domain.User{Username: "owner"}
	_, err := store.Users().Create(ctx, owner)
	require.NoError(t, err)
	other := &domain.User{Username: "other"}
	_, err = store.Users().Create(ctx, other)
	require.NoError(t, err)

	add := func(userID, description string, date time.Time) {
		t.Helper()
		_, err := store.Exercises().Create(ctx, &domain.Exercise{
			UserID:      userID,
			Description: description,
			Duration:    10,
			Date:        date,
		})
		require.NoError(t, err)
	}
	add(owner.ID, "third", day(20))
	add(owner.ID, "first", day(1))
	add(owner.ID, "second-a", day(10))
	add(owner.ID, "second-b", day(10))
	add(other.ID, "foreign", day(10))

	query := func(q domain.LogQuery) []string {
		t.Helper()
		q.UserID = owner.ID
		exercises, err := store.Exercises().Query(ctx, q)
		require.NoError(t, err)
		out := make([]string, len(exercises))
		for i, exercise := range exercises {
			assert.Equal(t, owner.ID, exercise.UserID)
			assert.Equal(t, time.UTC, exercise.Date.Location())
			out[i] = exercise.Description
		}
		return out
	}

	from, to := day(10), day(10)
	assert.Equal(t, []string{"first", "second-a", "second-b", "third"}, query(domain.LogQuery{}))
	assert.Equal(t, []string{"second-a", "second-b"}, query(domain.LogQuery{From: &from, To: &to}))
	assert.Equal(t, []string{"first", "second-a"}, query(domain.LogQuery{Limit: 2}))
	assert.Equal(t, []string{"second-a", "second-b", "third"}, query(domain.LogQuery{From: &from}))
}

func TestExerciseRequiresOwner(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Exercises().Create(context.Background(), &domain.Exercise{
		UserID: "ghost",
		Date:   day(1),
	})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDeleteUserCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := &domain.User{Username: "temp"}
	_, err := store.Users().Create(ctx, user)
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		_, err := store.Exercises().Create(ctx, &domain.Exercise{UserID: user.ID, Date: day(i)})
		require.NoError(t, err)
	}

	removed, err := store.Users().Delete(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)

	left, err := store.Exercises().Query(ctx, domain.LogQuery{UserID: user.ID})
	require.NoError(t, err)
	assert.Empty(t, left)

	_, err = store.Users().Delete(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	// the username is free again
	_, err = store.Users().Create(ctx, &domain.User{Username: "temp"})
	assert.NoError(t, err)
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tracker.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close(context.Background())

	require.NoError(t, store.Ping(context.Background()))
	assert.FileExists(t, path)
}
