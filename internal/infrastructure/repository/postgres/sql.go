package postgres

import (
	"database/sql"
	"errors"
)

// isNotFound tells an absent snapshot row apart from a real query failure.
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
