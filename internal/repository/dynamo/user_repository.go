package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"exercise-tracker/internal/domain"
)

type userItem struct {
	ID       string `dynamodbav:"id"`
	Username string `dynamodbav:"username"`
}

type uniqueItem struct {
	PK     string `dynamodbav:"pk"`
	UserID string `dynamodbav:"user_id"`
}

// usernameConstraintPK is the constraint table key reserving a username.
func usernameConstraintPK(username string) string {
	return "user#username#" + username
}

func stringKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

type UserRepository struct {
	store *Store
}

func (r *UserRepository) Init(ctx context.Context) error {
	if err := r.store.ensureTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(r.store.tables.Users),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
	}); err != nil {
		return err
	}
	return r.store.ensureTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(r.store.tables.Unique),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
		},
	})
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (string, error) {
	item := userItem{ID: uuid.NewString(), Username: user.Username}
	userAttrs, err := attributevalue.MarshalMap(item)
	if err != nil {
		return "", fmt.Errorf("marshal user: %w", err)
	}
	constraintAttrs, err := attributevalue.MarshalMap(uniqueItem{
		PK:     usernameConstraintPK(user.Username),
		UserID: item.ID,
	})
	if err != nil {
		return "", fmt.Errorf("marshal username constraint: %w", err)
	}

	// index 0 is the constraint put; its condition failing means the name is taken
	_, err = r.store.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(r.store.tables.Unique),
					Item:                constraintAttrs,
					ConditionExpression: aws.String("attribute_not_exists(pk)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(r.store.tables.Users),
					Item:                userAttrs,
					ConditionExpression: aws.String("attribute_not_exists(id)"),
				},
			},
		},
	})
	if err != nil {
		if conditionFailedAt(err, 0) {
			return "", fmt.Errorf("insert user %q: %w", user.Username, domain.ErrDuplicateUsername)
		}
		return "", fmt.Errorf("insert user: %w", err)
	}

	user.ID = item.ID
	return item.ID, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	out, err := r.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.store.tables.Unique),
		Key:            stringKey("pk", usernameConstraintPK(username)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get username constraint: %w", err)
	}
	if out.Item == nil {
		return nil, domain.ErrUserNotFound
	}

	var constraint uniqueItem
	if err := attributevalue.UnmarshalMap(out.Item, &constraint); err != nil {
		return nil, fmt.Errorf("unmarshal username constraint: %w", err)
	}
	return r.GetByID(ctx, constraint.UserID)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, domain.ErrUserNotFound
	}

	out, err := r.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.store.tables.Users),
		Key:            stringKey("id", id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if out.Item == nil {
		return nil, domain.ErrUserNotFound
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &domain.User{ID: item.ID, Username: item.Username}, nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	paginator := dynamodb.NewScanPaginator(r.store.client, &dynamodb.ScanInput{
		TableName: aws.String(r.store.tables.Users),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan users: %w", err)
		}

		var items []userItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal users: %w", err)
		}
		for _, item := range items {
			users = append(users, domain.User{ID: item.ID, Username: item.Username})
		}
	}
	return users, nil
}

// Delete cascades to the user's exercises before removing the user and its
// username constraint in one transaction. A second sweep runs once the user is
// gone, when no new exercise can pass the owner check, to pick up entries the
// index had not yet shown to the first one.
func (r *UserRepository) Delete(ctx context.Context, id string) (int64, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}

	removed, err := r.store.exercises.deleteByUser(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("delete user exercises: %w", err)
	}

	_, err = r.store.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Delete: &types.Delete{
					TableName:           aws.String(r.store.tables.Users),
					Key:                 stringKey("id", id),
					ConditionExpression: aws.String("attribute_exists(id)"),
				},
			},
			{
				Delete: &types.Delete{
					TableName: aws.String(r.store.tables.Unique),
					Key:       stringKey("pk", usernameConstraintPK(user.Username)),
				},
			},
		},
	})
	if err != nil {
		if conditionFailedAt(err, 0) {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("delete user: %w", err)
	}

	late, err := r.store.exercises.deleteByUser(ctx, id)
	if err != nil {
		return removed, fmt.Errorf("sweep user exercises: %w", err)
	}
	return removed + late, nil
}
