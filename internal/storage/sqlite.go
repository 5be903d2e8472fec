package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"ledgerbook/internal/filter"
)

// NewSQLiteRepository opens (creating if needed) the database file at dbPath
// and brings its schema up to date.
func NewSQLiteRepository(dbPath string) (*SQLRepository, error) {
	if err := RunSQLiteMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLRepository{
		db:         db,
		dialect:    filter.SQLite,
		isRestrict: isSQLiteForeignKeyViolation,
	}, nil
}

// sqliteDSN turns on foreign key enforcement, which SQLite leaves off per
// connection by default.
func sqliteDSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func isSQLiteForeignKeyViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "FOREIGN KEY")
	}
	return false
}
