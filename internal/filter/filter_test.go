package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerbook/internal/core"
)

func ptr[T any](v T) *T { return &v }

func sampleEntries() []core.Entry {
	return []core.Entry{
		{ID: 1, DueDate: core.NewDate(2025, 1, 1), Type: core.Expense, CategoryID: 1, PersonID: 1},
		{ID: 2, DueDate: core.NewDate(2025, 6, 15), Type: core.Income, CategoryID: 2, PersonID: 1},
		{ID: 3, DueDate: core.NewDate(2025, 12, 31), Type: core.Expense, CategoryID: 1, PersonID: 2},
	}
}

func matchingIDs(p Predicate, entries []core.Entry) []int64 {
	var ids []int64
	for _, e := range entries {
		if p.Match(e) {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

func TestCompileEmptyMatchesEverything(t *testing.T) {
	p, err := Compile(Criteria{Type: "   "})
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
	assert.Equal(t, []int64{1, 2, 3}, matchingIDs(p, sampleEntries()))

	where, args := p.Where(SQLite)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestCompileDateRange(t *testing.T) {
	cases := []struct {
		name string
		c    Criteria
		want []int64
	}{
		{"inclusive both ends", Criteria{DateFrom: ptr(core.NewDate(2025, 1, 1)), DateTo: ptr(core.NewDate(2025, 6, 15))}, []int64{1, 2}},
		{"from only", Criteria{DateFrom: ptr(core.NewDate(2025, 6, 15))}, []int64{2, 3}},
		{"to only", Criteria{DateTo: ptr(core.NewDate(2025, 1, 1))}, []int64{1}},
		{"inverted range", Criteria{DateFrom: ptr(core.NewDate(2025, 12, 31)), DateTo: ptr(core.NewDate(2025, 1, 1))}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Compile(tc.c)
			require.NoError(t, err)
			assert.Equal(t, tc.want, matchingIDs(p, sampleEntries()))
		})
	}
}

func TestCompileTypeIsCaseInsensitive(t *testing.T) {
	lower, err := Compile(Criteria{Type: "despesa"})
	require.NoError(t, err)
	upper, err := Compile(Criteria{Type: "DESPESA"})
	require.NoError(t, err)
	assert.Equal(t, lower, upper)
	assert.Equal(t, []int64{1, 3}, matchingIDs(lower, sampleEntries()))
}

func TestCompileRejectsUnknownType(t *testing.T) {
	_, err := Compile(Criteria{Type: "renda"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidArgument))
}

func TestCompileReferences(t *testing.T) {
	p, err := Compile(Criteria{CategoryID: ptr(int64(1)), PersonID: ptr(int64(2))})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, matchingIDs(p, sampleEntries()))
}

func TestClauseOrderAndPlaceholders(t *testing.T) {
	p, err := Compile(Criteria{
		PersonID:   ptr(int64(9)),
		Type:       "income",
		DateTo:     ptr(core.NewDate(2025, 2, 1)),
		CategoryID: ptr(int64(4)),
		DateFrom:   ptr(core.NewDate(2025, 1, 1)),
	})
	require.NoError(t, err)

	where, args := p.Where(SQLite)
	assert.Equal(t, "due_date >= ? AND due_date <= ? AND type = ? AND category_id = ? AND person_id = ?", where)
	assert.Equal(t, []any{"2025-01-01", "2025-02-01", "INCOME", int64(4), int64(9)}, args)

	where, _ = p.Where(Postgres)
	assert.Equal(t, "due_date >= $1 AND due_date <= $2 AND type = $3 AND category_id = $4 AND person_id = $5", where)
}

func TestWhereNeverInterpolatesInput(t *testing.T) {
	p := Predicate{Clauses: []Clause{
		{Column: "note; DROP TABLE entries", Op: OpEq, Value: "x"},
		{Column: ColumnPersonID, Op: OpEq, Value: int64(1)},
	}}
	where, args := p.Where(Postgres)
	assert.Equal(t, "1 = 0 AND person_id = $1", where)
	assert.Equal(t, []any{int64(1)}, args)
	assert.False(t, p.Match(core.Entry{PersonID: 1}))
}
