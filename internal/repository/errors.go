package repository

import (
	"database/sql"
	"strings"
)

// isUniqueViolation matches unique constraint errors from SQLite and PostgreSQL.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

// affectedOrNotFound turns an update or delete that touched no rows into notFound.
func affectedOrNotFound(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
