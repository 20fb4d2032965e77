package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is wrapped by repositories when a row does not exist, e.g.
// fmt.Errorf("account: %w", ErrNotFound). Callers test with errors.Is.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is wrapped when an insert violates a uniqueness constraint,
// such as a second opportunity for the same (account, post).
var ErrDuplicate = errors.New("already exists")

// IsUniqueViolation reports whether err is a SQLite uniqueness violation or
// our own ErrDuplicate wrapper. modernc.org/sqlite surfaces constraint
// failures as plain errors carrying the SQLite message text.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
