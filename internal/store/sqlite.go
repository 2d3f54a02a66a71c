package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLite is the default Store backed by a single SQLite database file.
type SQLite struct {
	db *sqlx.DB
}

// NewSQLite wraps an open database whose schema is already in place.
func NewSQLite(db *sqlx.DB) *SQLite {
	return &SQLite{db: db}
}

// Ping checks that the database answers.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	// Connections without extended result codes only report the message.
	return strings.Contains(se.Error(), "UNIQUE constraint failed")
}
