// Package dynamo implements the repositories on DynamoDB.
//
// Usernames are kept unique through a constraint table whose items are written
// in the same transaction as the user. Exercises are written together with a
// condition check on their owner, so an exercise can never reference a user
// that does not exist at write time.
package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"exercise-tracker/internal/repository"
)

// userDateIndex is the exercises GSI keyed by owner and sortable date.
const userDateIndex = "user_id-date_key-index"

// Tables names the DynamoDB tables used by the store.
type Tables struct {
	Users     string
	Exercises string
	Unique    string
}

// DefaultTables returns the default table names.
func DefaultTables() Tables {
	return Tables{
		Users:     "tracker_users",
		Exercises: "tracker_exercises",
		Unique:    "tracker_unique_constraints",
	}
}

func (t *Tables) validate() {
	def := DefaultTables()
	if t.Users == "" {
		t.Users = def.Users
	}
	if t.Exercises == "" {
		t.Exercises = def.Exercises
	}
	if t.Unique == "" {
		t.Unique = def.Unique
	}
}

// Store is the DynamoDB-backed repository.Store.
type Store struct {
	client       *dynamodb.Client
	tables       Tables
	createTables bool
	users        *UserRepository
	exercises    *ExerciseRepository
}

// New wraps client. When createTables is set, Init creates missing tables and
// waits for them to become active.
func New(client *dynamodb.Client, tables Tables, createTables bool) *Store {
	tables.validate()
	s := &Store{
		client:       client,
		tables:       tables,
		createTables: createTables,
	}
	s.users = &UserRepository{store: s}
	s.exercises = &ExerciseRepository{store: s}
	return s
}

func (s *Store) Users() repository.UserRepository         { return s.users }
func (s *Store) Exercises() repository.ExerciseRepository { return s.exercises }

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tables.Users),
	})
	if err != nil {
		return fmt.Errorf("describe users table: %w", err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no connection that needs releasing.
func (s *Store) Close(context.Context) error { return nil }

func (s *Store) ensureTable(ctx context.Context, input *dynamodb.CreateTableInput) error {
	if !s.createTables {
		return nil
	}

	input.BillingMode = types.BillingModePayPerRequest
	_, err := s.client.CreateTable(ctx, input)
	if err != nil {
		if hasErrorCode(err, codeResourceInUse) {
			return nil
		}
		return fmt.Errorf("create table %s: %w", aws.ToString(input.TableName), err)
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: input.TableName}, 2*time.Minute); err != nil {
		return fmt.Errorf("wait for table %s: %w", aws.ToString(input.TableName), err)
	}
	return nil
}
