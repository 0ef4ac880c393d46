package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"exercise-tracker/internal/domain"
	"exercise-tracker/internal/repository"
)

const createExercisesTable = `
CREATE TABLE IF NOT EXISTS exercises (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	duration INTEGER NOT NULL DEFAULT 0,
	date_ms INTEGER NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_exercises_user_date ON exercises(user_id, date_ms);
`

type ExerciseRepository struct {
	db *sql.DB
}

func NewExerciseRepository(db *sql.DB) repository.ExerciseRepository {
	return &ExerciseRepository{db: db}
}

func (r *ExerciseRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createExercisesTable); err != nil {
		return fmt.Errorf("create exercises table: %w", err)
	}
	return nil
}

func (r *ExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (string, error) {
	id := uuid.NewString()
	if _, err := r.db.ExecContext(ctx, `
INSERT INTO exercises (id, user_id, description, duration, date_ms)
VALUES (?, ?, ?, ?, ?)`,
		id,
		exercise.UserID,
		exercise.Description,
		exercise.Duration,
		exercise.Date.UnixMilli(),
	); err != nil {
		if isForeignKeyViolation(err) {
			return "", fmt.Errorf("insert exercise for %s: %w", exercise.UserID, domain.ErrUserNotFound)
		}
		return "", fmt.Errorf("insert exercise: %w", err)
	}

	exercise.ID = id
	return id, nil
}

func (r *ExerciseRepository) Query(ctx context.Context, q domain.LogQuery) ([]domain.Exercise, error) {
	clauses := []string{"user_id = ?"}
	args := []any{q.UserID}
	if q.From != nil {
		clauses = append(clauses, "date_ms >= ?")
		args = append(args, q.From.UnixMilli())
	}
	if q.To != nil {
		clauses = append(clauses, "date_ms <= ?")
		args = append(args, q.To.UnixMilli())
	}

	query := fmt.Sprintf(`
SELECT id, user_id, description, duration, date_ms
FROM exercises
WHERE %s
ORDER BY date_ms ASC, rowid ASC`, strings.Join(clauses, " AND "))
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	defer rows.Close()

	exercises := []domain.Exercise{}
	for rows.Next() {
		var (
			exercise domain.Exercise
			dateMS   int64
		)
		if err := rows.Scan(&exercise.ID, &exercise.UserID, &exercise.Description, &exercise.Duration, &dateMS); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		exercise.Date = time.UnixMilli(dateMS).UTC()
		exercises = append(exercises, exercise)
	}

	return exercises, rows.Err()
}
