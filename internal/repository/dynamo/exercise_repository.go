package dynamo

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"exercise-tracker/internal/domain"
)

// dateLayout is fixed width so that lexical order on date_key is chronological.
const dateLayout = "2006-01-02T15:04:05.000Z"

// maxBatchWrite is the BatchWriteItem request limit.
const maxBatchWrite = 25

type exerciseItem struct {
	ID          string `dynamodbav:"id"`
	UserID      string `dynamodbav:"user_id"`
	Description string `dynamodbav:"description"`
	Duration    int    `dynamodbav:"duration"`
	Date        string `dynamodbav:"date"`
	DateKey     string `dynamodbav:"date_key"`
}

func encodeDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// dateKey orders entries by date and then by their time-ordered id.
func dateKey(date time.Time, id string) string {
	return encodeDate(date) + "#" + id
}

// keyCondition builds the GSI key condition for q. The upper bound uses '$',
// which sorts just after the '#' separator, so every entry on the To instant
// is included.
func keyCondition(q domain.LogQuery) (string, map[string]types.AttributeValue) {
	values := map[string]types.AttributeValue{
		":user_id": &types.AttributeValueMemberS{Value: q.UserID},
	}
	expr := "user_id = :user_id"

	switch {
	case q.From != nil && q.To != nil:
		expr += " AND date_key BETWEEN :from AND :to"
		values[":from"] = &types.AttributeValueMemberS{Value: encodeDate(*q.From)}
		values[":to"] = &types.AttributeValueMemberS{Value: encodeDate(*q.To) + "$"}
	case q.From != nil:
		expr += " AND date_key >= :from"
		values[":from"] = &types.AttributeValueMemberS{Value: encodeDate(*q.From)}
	case q.To != nil:
		expr += " AND date_key <= :to"
		values[":to"] = &types.AttributeValueMemberS{Value: encodeDate(*q.To) + "$"}
	}
	return expr, values
}

type ExerciseRepository struct {
	store *Store
}

func (r *ExerciseRepository) Init(ctx context.Context) error {
	return r.store.ensureTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(r.store.tables.Exercises),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("user_id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("date_key"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(userDateIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("user_id"), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("date_key"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	})
}

func (r *ExerciseRepository) Create(ctx context.Context, exercise *domain.Exercise) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate exercise id: %w", err)
	}

	exercise.Date = exercise.Date.UTC().Truncate(time.Millisecond)
	item, err := attributevalue.MarshalMap(exerciseItem{
		ID:          id.String(),
		UserID:      exercise.UserID,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        encodeDate(exercise.Date),
		DateKey:     dateKey(exercise.Date, id.String()),
	})
	if err != nil {
		return "", fmt.Errorf("marshal exercise: %w", err)
	}

	// index 0 checks the owner still exists
	_, err = r.store.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				ConditionCheck: &types.ConditionCheck{
					TableName:           aws.String(r.store.tables.Users),
					Key:                 stringKey("id", exercise.UserID),
					ConditionExpression: aws.String("attribute_exists(id)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(r.store.tables.Exercises),
					Item:                item,
					ConditionExpression: aws.String("attribute_not_exists(id)"),
				},
			},
		},
	})
	if err != nil {
		if conditionFailedAt(err, 0) {
			return "", fmt.Errorf("insert exercise for %s: %w", exercise.UserID, domain.ErrUserNotFound)
		}
		return "", fmt.Errorf("insert exercise: %w", err)
	}

	exercise.ID = id.String()
	return exercise.ID, nil
}

func (r *ExerciseRepository) Query(ctx context.Context, q domain.LogQuery) ([]domain.Exercise, error) {
	expr, values := keyCondition(q)
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.store.tables.Exercises),
		IndexName:                 aws.String(userDateIndex),
		KeyConditionExpression:    aws.String(expr),
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(true),
	}
	input.Limit = pageLimit(q.Limit)

	exercises := []domain.Exercise{}
	paginator := dynamodb.NewQueryPaginator(r.store.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query exercises: %w", err)
		}

		var items []exerciseItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal exercises: %w", err)
		}
		for _, item := range items {
			exercise, err := item.toDomain()
			if err != nil {
				return nil, err
			}
			exercises = append(exercises, exercise)
			if q.Limit > 0 && len(exercises) == q.Limit {
				return exercises, nil
			}
		}
	}
	return exercises, nil
}

// pageLimit caps the per-page item count; larger limits are met across pages.
func pageLimit(limit int) *int32 {
	if limit <= 0 {
		return nil
	}
	return aws.Int32(int32(min(limit, math.MaxInt32)))
}

func (i exerciseItem) toDomain() (domain.Exercise, error) {
	date, err := time.Parse(dateLayout, i.Date)
	if err != nil {
		return domain.Exercise{}, fmt.Errorf("parse exercise %s date: %w", i.ID, err)
	}
	return domain.Exercise{
		ID:          i.ID,
		UserID:      i.UserID,
		Description: i.Description,
		Duration:    i.Duration,
		Date:        date,
	}, nil
}

// deleteByUser removes every exercise owned by userID and returns how many it removed.
func (r *ExerciseRepository) deleteByUser(ctx context.Context, userID string) (int64, error) {
	var ids []string
	paginator := dynamodb.NewQueryPaginator(r.store.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.store.tables.Exercises),
		IndexName:              aws.String(userDateIndex),
		KeyConditionExpression: aws.String("user_id = :user_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user_id": &types.AttributeValueMemberS{Value: userID},
		},
		ProjectionExpression: aws.String("id"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("query user exercises: %w", err)
		}
		for _, raw := range page.Items {
			if v, ok := raw["id"].(*types.AttributeValueMemberS); ok {
				ids = append(ids, v.Value)
			}
		}
	}

	for _, chunk := range chunkIDs(ids, maxBatchWrite) {
		requests := make([]types.WriteRequest, len(chunk))
		for i, id := range chunk {
			requests[i] = types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: stringKey("id", id)},
			}
		}
		if err := r.batchWrite(ctx, requests); err != nil {
			return 0, err
		}
	}
	return int64(len(ids)), nil
}

// batchWrite resubmits unprocessed items until the batch is fully applied.
func (r *ExerciseRepository) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{r.store.tables.Exercises: requests}
	for len(pending) > 0 {
		out, err := r.store.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return fmt.Errorf("batch delete exercises: %w", err)
		}
		pending = out.UnprocessedItems
		if len(pending) > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
		}
	}
	return nil
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for size < len(ids) {
		ids, chunks = ids[size:], append(chunks, ids[:size])
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
