package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"ledgerbook/internal/filter"
)

const pgForeignKeyViolation = "23503"

// NewPostgresRepository connects to dsn and brings the schema up to date.
func NewPostgresRepository(dsn string) (*SQLRepository, error) {
	if err := RunPostgresMigrations(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLRepository{
		db:         db,
		dialect:    filter.Postgres,
		isRestrict: isPostgresForeignKeyViolation,
	}, nil
}

func isPostgresForeignKeyViolation(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == pgForeignKeyViolation
}
