package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"exercise-tracker/internal/domain"
	"exercise-tracker/internal/repository"
)

type exerciseDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      primitive.ObjectID `bson:"userId"`
	Description string             `bson:"description"`
	Duration    int                `bson:"duration"`
	Date        time.Time          `bson:"date"`
}

func (d exerciseDocument) toDomain() domain.Exercise {
	return domain.Exercise{
		ID:          d.ID.Hex(),
		UserID:      d.UserID.Hex(),
		Description: d.Description,
		Duration:    d.Duration,
		Date:        d.Date.UTC(),
	}
}

type ExerciseRepository struct {
	exercises *mongo.Collection
}

func NewExerciseRepository(db *mongo.Database) repository.ExerciseRepository {
	return &ExerciseRepository{exercises: db.Collection(exercisesCollection)}
}

func (r *ExerciseRepository) Init(ctx context.Context) error {
	_, err := r.exercises.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetName("user_date"),
	})
	if err != nil {
		return fmt.Errorf("create exercise index: %w", err)
	}
	return nil
}

// Create does not re-check the owner; MongoDB has no foreign keys.
func (r *ExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (string, error) {
	userID, err := parseUserID(exercise.UserID)
	if err != nil {
		return "", err
	}

	// BSON dates carry millisecond precision.
	exercise.Date = exercise.Date.UTC().Truncate(time.Millisecond)
	res, err := r.exercises.InsertOne(ctx, exerciseDocument{
		UserID:      userID,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        exercise.Date,
	})
	if err != nil {
		return "", fmt.Errorf("insert exercise: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert exercise: unexpected id type %T", res.InsertedID)
	}
	exercise.ID = oid.Hex()
	return exercise.ID, nil
}

func (r *ExerciseRepository) Query(ctx context.Context, q domain.LogQuery) ([]domain.Exercise, error) {
	userID, err := parseUserID(q.UserID)
	if err != nil {
		return nil, err
	}

	cursor, err := r.exercises.Find(ctx, logFilter(userID, q), logFindOptions(q))
	if err != nil {
		return nil, fmt.Errorf("find exercises: %w", err)
	}

	var docs []exerciseDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode exercises: %w", err)
	}

	exercises := make([]domain.Exercise, len(docs))
	for i := range docs {
		exercises[i] = docs[i].toDomain()
	}
	return exercises, nil
}

func logFilter(userID primitive.ObjectID, q domain.LogQuery) bson.M {
	filter := bson.M{"userId": userID}
	if q.From == nil && q.To == nil {
		return filter
	}

	date := bson.M{}
	if q.From != nil {
		date["$gte"] = *q.From
	}
	if q.To != nil {
		date["$lte"] = *q.To
	}
	filter["date"] = date
	return filter
}

func logFindOptions(q domain.LogQuery) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return opts
}
