package domain

import "errors"

var (
	// ErrUserNotFound is returned when a user id does not resolve to a stored user,
	// including ids that are malformed for the backing store.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateUsername is returned when the store rejects a username that is already taken.
	ErrDuplicateUsername = errors.New("username already exists")
)
