// Package filter compiles sparse ledger search criteria into a conjunctive
// predicate. A predicate can be evaluated in memory or rendered as a
// parameterized SQL WHERE fragment; it never performs I/O itself.
package filter

import (
	"strconv"
	"strings"

	"ledgerbook/internal/core"
)

// Criteria holds the optional search fields. A nil pointer or a blank type
// means the field is absent.
type Criteria struct {
	DateFrom   *core.Date
	DateTo     *core.Date
	Type       string
	CategoryID *int64
	PersonID   *int64
}

// Column is one of the whitelisted entry columns a clause may target.
type Column string

const (
	ColumnDueDate    Column = "due_date"
	ColumnType       Column = "type"
	ColumnCategoryID Column = "category_id"
	ColumnPersonID   Column = "person_id"
)

var columns = map[Column]bool{
	ColumnDueDate:    true,
	ColumnType:       true,
	ColumnCategoryID: true,
	ColumnPersonID:   true,
}

var ops = map[Op]bool{OpEq: true, OpGte: true, OpLte: true}

// Op is a comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpLte Op = "<="
)

// Clause is a single column comparison with a bound value.
type Clause struct {
	Column Column
	Op     Op
	Value  any
}

// Predicate is the ordered AND of its clauses. The zero value matches every
// entry.
type Predicate struct {
	Clauses []Clause
}

// Dialect controls placeholder syntax.
type Dialect int

const (
	// SQLite and most drivers use positional '?' markers.
	SQLite Dialect = iota
	// Postgres uses numbered $n markers.
	Postgres
)

// Compile builds the predicate for c. Clauses always appear in the same order:
// due date lower bound, due date upper bound, type, category, person.
func Compile(c Criteria) (Predicate, error) {
	var p Predicate
	if c.DateFrom != nil {
		p.Clauses = append(p.Clauses, Clause{ColumnDueDate, OpGte, *c.DateFrom})
	}
	if c.DateTo != nil {
		p.Clauses = append(p.Clauses, Clause{ColumnDueDate, OpLte, *c.DateTo})
	}
	if strings.TrimSpace(c.Type) != "" {
		t, err := core.ParseEntryType(c.Type)
		if err != nil {
			return Predicate{}, err
		}
		p.Clauses = append(p.Clauses, Clause{ColumnType, OpEq, t})
	}
	if c.CategoryID != nil {
		p.Clauses = append(p.Clauses, Clause{ColumnCategoryID, OpEq, *c.CategoryID})
	}
	if c.PersonID != nil {
		p.Clauses = append(p.Clauses, Clause{ColumnPersonID, OpEq, *c.PersonID})
	}
	return p, nil
}

// IsEmpty reports whether p matches every entry.
func (p Predicate) IsEmpty() bool {
	return len(p.Clauses) == 0
}

// Match evaluates p against e.
func (p Predicate) Match(e core.Entry) bool {
	for _, c := range p.Clauses {
		if !c.match(e) {
			return false
		}
	}
	return true
}

func (c Clause) match(e core.Entry) bool {
	switch c.Column {
	case ColumnDueDate:
		d, ok := c.Value.(core.Date)
		if !ok {
			return false
		}
		return compare(e.DueDate.Compare(d), c.Op)
	case ColumnType:
		return c.Op == OpEq && e.Type == c.Value
	case ColumnCategoryID:
		return c.Op == OpEq && e.CategoryID == c.Value
	case ColumnPersonID:
		return c.Op == OpEq && e.PersonID == c.Value
	default:
		return false
	}
}

func compare(cmp int, op Op) bool {
	switch op {
	case OpEq:
		return cmp == 0
	case OpGte:
		return cmp >= 0
	case OpLte:
		return cmp <= 0
	default:
		return false
	}
}

// Where renders p as "col op ? AND ..." with its bound arguments. Column
// names come only from the whitelist; values are never interpolated. An empty
// predicate renders as an empty string.
func (p Predicate) Where(d Dialect) (string, []any) {
	if p.IsEmpty() {
		return "", nil
	}
	parts := make([]string, 0, len(p.Clauses))
	args := make([]any, 0, len(p.Clauses))
	for _, c := range p.Clauses {
		if !columns[c.Column] || !ops[c.Op] {
			// hand-built clause outside the whitelist: match nothing
			parts = append(parts, "1 = 0")
			continue
		}
		args = append(args, sqlValue(c.Value))
		parts = append(parts, string(c.Column)+" "+string(c.Op)+" "+placeholder(d, len(args)))
	}
	return strings.Join(parts, " AND "), args
}

func placeholder(d Dialect, n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// sqlValue lowers domain values to driver-friendly primitives.
func sqlValue(v any) any {
	switch x := v.(type) {
	case core.Date:
		return x.String()
	case core.EntryType:
		return string(x)
	default:
		return v
	}
}
