package mongodb

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"exercise-tracker/internal/domain"
)

// parseUserID converts a hex id into an ObjectID. Ids that are not valid
// ObjectIDs cannot name a stored user, so they are reported as not found.
func parseUserID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("user id %q: %w", id, domain.ErrUserNotFound)
	}
	return oid, nil
}
