package storage

import (
	"context"

	"ledgerbook/internal/core"
	"ledgerbook/internal/filter"
)

// Ports implemented by every backend. Save inserts when the id is zero and
// replaces the row otherwise, failing with core.NotFoundError when that row is
// gone. Find reports absence through the bool, never through the error.
type (
	PersonStore interface {
		SavePerson(ctx context.Context, p core.Person) (core.Person, error)
		FindPerson(ctx context.Context, id int64) (core.Person, bool, error)
		ListPeople(ctx context.Context) ([]core.Person, error)
		DeletePerson(ctx context.Context, id int64) (bool, error)
	}

	CategoryStore interface {
		SaveCategory(ctx context.Context, c core.Category) (core.Category, error)
		FindCategory(ctx context.Context, id int64) (core.Category, bool, error)
		ListCategories(ctx context.Context) ([]core.Category, error)
		DeleteCategory(ctx context.Context, id int64) (bool, error)
	}

	EntryStore interface {
		SaveEntry(ctx context.Context, e core.Entry) (core.Entry, error)
		FindEntry(ctx context.Context, id int64) (core.Entry, bool, error)
		ListEntries(ctx context.Context) ([]core.Entry, error)
		DeleteEntry(ctx context.Context, id int64) (bool, error)
		// FindEntries returns the entries matching p ordered by id.
		FindEntries(ctx context.Context, p filter.Predicate) ([]core.Entry, error)
		// ExistsEntries reports whether any entry matches p.
		ExistsEntries(ctx context.Context, p filter.Predicate) (bool, error)
	}

	// Repository bundles the three stores of one backend.
	Repository interface {
		PersonStore
		CategoryStore
		EntryStore
		Ping(ctx context.Context) error
		Close() error
	}
)
