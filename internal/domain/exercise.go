package domain

import "time"

// Exercise is a single logged workout owned by a User.
type Exercise struct {
	ID          string
	UserID      string
	Description string
	Duration    int
	Date        time.Time
}

// LogQuery selects the exercises of one user. From and To are inclusive bounds;
// a zero Limit returns every matching entry.
type LogQuery struct {
	UserID string
	From   *time.Time
	To     *time.Time
	Limit  int
}
