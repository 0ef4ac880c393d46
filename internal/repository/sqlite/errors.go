package sqlite

import (
	"errors"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func isUniqueViolation(err error) bool {
	return hasConstraintCode(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "unique")
}

func isForeignKeyViolation(err error) bool {
	return hasConstraintCode(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "foreign key")
}

func hasConstraintCode(err error, code int, fallback string) bool {
	if err == nil {
		return false
	}
	var sqlErr *msqlite.Error
	if errors.As(err, &sqlErr) && sqlErr.Code() == code {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), fallback)
}
