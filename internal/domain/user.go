package domain

// User is a person whose exercises are tracked.
type User struct {
	ID       string
	Username string
}
