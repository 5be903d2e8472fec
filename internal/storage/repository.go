package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"ledgerbook/internal/core"
	"ledgerbook/internal/filter"
)

// SQLRepository implements Repository on top of database/sql. Queries are
// written with '?' markers and rebound for dialects that number them.
type SQLRepository struct {
	db      *sql.DB
	dialect filter.Dialect
	// isRestrict reports a foreign key violation raised by the driver.
	isRestrict func(error) bool
}

const (
	personColumns = "id, name, active, street, number, complement, neighborhood, postal_code, city, state"
	entryColumns  = "id, description, due_date, payment_date, amount, note, type, category_id, person_id"
)

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// DB exposes the underlying pool for migrations and tests.
func (r *SQLRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLRepository) rebind(query string) string {
	if r.dialect != filter.Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// insert runs an INSERT ... RETURNING id.
func (r *SQLRepository) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := r.db.QueryRowContext(ctx, r.rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// exec runs an UPDATE or DELETE and reports whether a row was touched.
func (r *SQLRepository) exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(query), args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLRepository) restrictError(err error, resource string, id int64) error {
	if r.isRestrict != nil && r.isRestrict(err) {
		return &core.ConflictError{Resource: resource, ID: id, Reason: "still referenced by entries"}
	}
	return err
}

// People

func (r *SQLRepository) SavePerson(ctx context.Context, p core.Person) (core.Person, error) {
	a := p.Address
	if p.ID == 0 {
		id, err := r.insert(ctx,
			"INSERT INTO people (name, active, street, number, complement, neighborhood, postal_code, city, state) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			p.Name, p.Active, a.Street, a.Number, a.Complement, a.Neighborhood, a.PostalCode, a.City, a.State)
		if err != nil {
			return core.Person{}, fmt.Errorf("insert person: %w", err)
		}
		p.ID = id
		slog.DebugContext(ctx, "Person inserted", "id", id)
		return p, nil
	}

	ok, err := r.exec(ctx,
		"UPDATE people SET name = ?, active = ?, street = ?, number = ?, complement = ?, neighborhood = ?, postal_code = ?, city = ?, state = ? WHERE id = ?",
		p.Name, p.Active, a.Street, a.Number, a.Complement, a.Neighborhood, a.PostalCode, a.City, a.State, p.ID)
	if err != nil {
		return core.Person{}, fmt.Errorf("update person %d: %w", p.ID, err)
	}
	if !ok {
		return core.Person{}, core.NotFound(core.ResourcePerson, p.ID)
	}
	return p, nil
}

func (r *SQLRepository) FindPerson(ctx context.Context, id int64) (core.Person, bool, error) {
	row := r.db.QueryRowContext(ctx, r.rebind("SELECT "+personColumns+" FROM people WHERE id = ?"), id)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Person{}, false, nil
	}
	if err != nil {
		return core.Person{}, false, fmt.Errorf("get person %d: %w", id, err)
	}
	return p, true, nil
}

func (r *SQLRepository) ListPeople(ctx context.Context) ([]core.Person, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+personColumns+" FROM people ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	people := []core.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

func (r *SQLRepository) DeletePerson(ctx context.Context, id int64) (bool, error) {
	ok, err := r.exec(ctx, "DELETE FROM people WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete person %d: %w", id, r.restrictError(err, core.ResourcePerson, id))
	}
	return ok, nil
}

// Categories

func (r *SQLRepository) SaveCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if c.ID == 0 {
		id, err := r.insert(ctx, "INSERT INTO categories (name) VALUES (?)", c.Name)
		if err != nil {
			return core.Category{}, fmt.Errorf("insert category: %w", err)
		}
		c.ID = id
		slog.DebugContext(ctx, "Category inserted", "id", id)
		return c, nil
	}

	ok, err := r.exec(ctx, "UPDATE categories SET name = ? WHERE id = ?", c.Name, c.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", c.ID, err)
	}
	if !ok {
		return core.Category{}, core.NotFound(core.ResourceCategory, c.ID)
	}
	return c, nil
}

func (r *SQLRepository) FindCategory(ctx context.Context, id int64) (core.Category, bool, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx, r.rebind("SELECT id, name FROM categories WHERE id = ?"), id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, false, nil
	}
	if err != nil {
		return core.Category{}, false, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, true, nil
}

func (r *SQLRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLRepository) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	ok, err := r.exec(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete category %d: %w", id, r.restrictError(err, core.ResourceCategory, id))
	}
	return ok, nil
}

// Entries

// SaveEntry fails with core.NotFoundError for the category or person when the
// foreign key check rejects the row.
func (r *SQLRepository) SaveEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	amount := amountText(e.Amount)
	if e.ID == 0 {
		id, err := r.insert(ctx,
			"INSERT INTO entries (description, due_date, payment_date, amount, note, type, category_id, person_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			e.Description, e.DueDate, e.PaymentDate, amount, e.Note, e.Type.String(), e.CategoryID, e.PersonID)
		if err != nil {
			if missing := r.missingReference(ctx, e, err); missing != nil {
				return core.Entry{}, missing
			}
			return core.Entry{}, fmt.Errorf("insert entry: %w", err)
		}
		e.ID = id
		slog.DebugContext(ctx, "Entry inserted", "id", id, "type", e.Type, "amount", amount)
		return e, nil
	}

	ok, err := r.exec(ctx,
		"UPDATE entries SET description = ?, due_date = ?, payment_date = ?, amount = ?, note = ?, type = ?, category_id = ?, person_id = ? WHERE id = ?",
		e.Description, e.DueDate, e.PaymentDate, amount, e.Note, e.Type.String(), e.CategoryID, e.PersonID, e.ID)
	if err != nil {
		if missing := r.missingReference(ctx, e, err); missing != nil {
			return core.Entry{}, missing
		}
		return core.Entry{}, fmt.Errorf("update entry %d: %w", e.ID, err)
	}
	if !ok {
		return core.Entry{}, core.NotFound(core.ResourceEntry, e.ID)
	}
	return e, nil
}

// missingReference names the absent row behind a foreign key violation on
// entries. It returns nil for any other error.
func (r *SQLRepository) missingReference(ctx context.Context, e core.Entry, err error) error {
	if r.isRestrict == nil || !r.isRestrict(err) {
		return nil
	}
	if _, found, ferr := r.FindCategory(ctx, e.CategoryID); ferr == nil && !found {
		return core.NotFound(core.ResourceCategory, e.CategoryID)
	}
	if _, found, ferr := r.FindPerson(ctx, e.PersonID); ferr == nil && !found {
		return core.NotFound(core.ResourcePerson, e.PersonID)
	}
	return nil
}

// amountText keeps the fractional scale so 0.30 is read back as 0.30.
func amountText(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

func (r *SQLRepository) FindEntry(ctx context.Context, id int64) (core.Entry, bool, error) {
	row := r.db.QueryRowContext(ctx, r.rebind("SELECT "+entryColumns+" FROM entries WHERE id = ?"), id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, false, nil
	}
	if err != nil {
		return core.Entry{}, false, fmt.Errorf("get entry %d: %w", id, err)
	}
	return e, true, nil
}

func (r *SQLRepository) ListEntries(ctx context.Context) ([]core.Entry, error) {
	return r.FindEntries(ctx, filter.Predicate{})
}

func (r *SQLRepository) FindEntries(ctx context.Context, p filter.Predicate) ([]core.Entry, error) {
	query := "SELECT " + entryColumns + " FROM entries"
	where, args := p.Where(r.dialect)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []core.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *SQLRepository) ExistsEntries(ctx context.Context, p filter.Predicate) (bool, error) {
	query := "SELECT 1 FROM entries"
	where, args := p.Where(r.dialect)
	if where != "" {
		query += " WHERE " + where
	}
	query += " LIMIT 1"

	var one int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check entries: %w", err)
	}
	return true, nil
}

func (r *SQLRepository) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	ok, err := r.exec(ctx, "DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete entry %d: %w", id, err)
	}
	return ok, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPerson(s scanner) (core.Person, error) {
	var p core.Person
	a := &p.Address
	err := s.Scan(&p.ID, &p.Name, &p.Active, &a.Street, &a.Number, &a.Complement, &a.Neighborhood, &a.PostalCode, &a.City, &a.State)
	return p, err
}

func scanEntry(s scanner) (core.Entry, error) {
	var (
		e      core.Entry
		paid   sql.Null[core.Date]
		amount string
		kind   string
	)
	if err := s.Scan(&e.ID, &e.Description, &e.DueDate, &paid, &amount, &e.Note, &kind, &e.CategoryID, &e.PersonID); err != nil {
		return core.Entry{}, err
	}
	if paid.Valid {
		d := paid.V
		e.PaymentDate = &d
	}
	parsed, err := core.ParseAmount(amount)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %d amount %q: %w", e.ID, amount, err)
	}
	e.Amount = parsed
	e.Type = core.EntryType(kind)
	return e, nil
}
