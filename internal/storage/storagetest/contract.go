// Package storagetest holds behaviour every storage.Repository must share.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerbook/internal/core"
	"ledgerbook/internal/filter"
	"ledgerbook/internal/storage"
)

func SamplePerson(name string) core.Person {
	return core.Person{
		Name:   name,
		Active: true,
		Address: core.Address{
			Street:       "Rua das Flores",
			Number:       "10",
			Neighborhood: "Centro",
			PostalCode:   "58000-000",
			City:         "Joao Pessoa",
			State:        "PB",
		},
	}
}

// Run exercises repo from an empty schema. newRepo must return a fresh
// repository on every call.
func Run(t *testing.T, newRepo func(t *testing.T) storage.Repository) {
	t.Run("people", func(t *testing.T) { testPeople(t, newRepo(t)) })
	t.Run("categories", func(t *testing.T) { testCategories(t, newRepo(t)) })
	t.Run("entries", func(t *testing.T) { testEntries(t, newRepo(t)) })
	t.Run("restrict", func(t *testing.T) { testRestrict(t, newRepo(t)) })
	t.Run("dangling references", func(t *testing.T) { testDanglingReferences(t, newRepo(t)) })
}

func testPeople(t *testing.T, repo storage.Repository) {
	ctx := context.Background()

	p, err := repo.SavePerson(ctx, SamplePerson("Ana"))
	require.NoError(t, err)
	require.NotZero(t, p.ID)

	got, found, err := repo.FindPerson(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, p, got)

	p.Name = "Ana Maria"
	p.Active = false
	p.Address.Complement = "Apto 3"
	_, err = repo.SavePerson(ctx, p)
	require.NoError(t, err)
	got, _, err = repo.FindPerson(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	missing := p
	missing.ID = p.ID + 100
	_, err = repo.SavePerson(ctx, missing)
	assert.True(t, errors.Is(err, core.ErrNotFound))

	all, err := repo.ListPeople(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	ok, err := repo.DeletePerson(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.DeletePerson(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, found, err = repo.FindPerson(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func testCategories(t *testing.T, repo storage.Repository) {
	ctx := context.Background()

	first, err := repo.SaveCategory(ctx, core.Category{Name: "Salario"})
	require.NoError(t, err)
	second, err := repo.SaveCategory(ctx, core.Category{Name: "Aluguel"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	second.Name = "Moradia"
	_, err = repo.SaveCategory(ctx, second)
	require.NoError(t, err)

	all, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Category{first, second}, all)

	_, found, err := repo.FindCategory(ctx, second.ID+100)
	require.NoError(t, err)
	assert.False(t, found)
}

func testEntries(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	person, err := repo.SavePerson(ctx, SamplePerson("Ana"))
	require.NoError(t, err)
	cat, err := repo.SaveCategory(ctx, core.Category{Name: "Contas"})
	require.NoError(t, err)

	paid := core.NewDate(2025, 1, 5)
	dates := []core.Date{core.NewDate(2025, 1, 1), core.NewDate(2025, 6, 15), core.NewDate(2025, 12, 31)}
	var saved []core.Entry
	for i, d := range dates {
		e := core.Entry{
			Description: "Conta",
			DueDate:     d,
			Amount:      decimal.RequireFromString("0.10").Add(decimal.RequireFromString("0.20")),
			Type:        core.Expense,
			CategoryID:  cat.ID,
			PersonID:    person.ID,
		}
		if i == 0 {
			e.PaymentDate = &paid
			e.Note = "pago em dinheiro"
		}
		e, err = repo.SaveEntry(ctx, e)
		require.NoError(t, err)
		saved = append(saved, e)
	}

	got, found, err := repo.FindEntry(ctx, saved[0].ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, saved[0], got)
	assert.Equal(t, "0.30", got.Amount.String())
	require.NotNil(t, got.PaymentDate)
	assert.Equal(t, 0, got.PaymentDate.Compare(paid))

	p, err := filter.Compile(filter.Criteria{DateFrom: &dates[0], DateTo: &dates[1]})
	require.NoError(t, err)
	matched, err := repo.FindEntries(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, []int64{saved[0].ID, saved[1].ID}, ids(matched))

	p, err = filter.Compile(filter.Criteria{DateFrom: &dates[2], DateTo: &dates[0]})
	require.NoError(t, err)
	matched, err = repo.FindEntries(ctx, p)
	require.NoError(t, err)
	assert.Empty(t, matched)

	p, err = filter.Compile(filter.Criteria{Type: "income"})
	require.NoError(t, err)
	matched, err = repo.FindEntries(ctx, p)
	require.NoError(t, err)
	assert.Empty(t, matched)

	all, err := repo.ListEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids(saved), ids(all))

	// full replace clears optional fields
	replaced := saved[0]
	replaced.Note = ""
	replaced.PaymentDate = nil
	_, err = repo.SaveEntry(ctx, replaced)
	require.NoError(t, err)
	got, _, err = repo.FindEntry(ctx, replaced.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Note)
	assert.Nil(t, got.PaymentDate)

	ok, err := repo.DeleteEntry(ctx, saved[1].ID)
	require.NoError(t, err)
	assert.True(t, ok)
	_, found, err = repo.FindEntry(ctx, saved[1].ID)
	require.NoError(t, err)
	assert.False(t, found)

	gone := saved[1]
	_, err = repo.SaveEntry(ctx, gone)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func testRestrict(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	person, err := repo.SavePerson(ctx, SamplePerson("Bia"))
	require.NoError(t, err)
	cat, err := repo.SaveCategory(ctx, core.Category{Name: "Lazer"})
	require.NoError(t, err)
	e, err := repo.SaveEntry(ctx, core.Entry{
		Description: "Cinema",
		DueDate:     core.NewDate(2025, 3, 1),
		Amount:      decimal.NewFromInt(30),
		Type:        core.Expense,
		CategoryID:  cat.ID,
		PersonID:    person.ID,
	})
	require.NoError(t, err)

	byCategory, err := filter.Compile(filter.Criteria{CategoryID: &cat.ID})
	require.NoError(t, err)
	exists, err := repo.ExistsEntries(ctx, byCategory)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.DeleteCategory(ctx, cat.ID)
	assert.True(t, errors.Is(err, core.ErrConflict), "got %v", err)
	_, err = repo.DeletePerson(ctx, person.ID)
	assert.True(t, errors.Is(err, core.ErrConflict), "got %v", err)

	_, err = repo.DeleteEntry(ctx, e.ID)
	require.NoError(t, err)
	exists, err = repo.ExistsEntries(ctx, byCategory)
	require.NoError(t, err)
	assert.False(t, exists)
	ok, err := repo.DeleteCategory(ctx, cat.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func testDanglingReferences(t *testing.T, repo storage.Repository) {
	ctx := context.Background()
	person, err := repo.SavePerson(ctx, SamplePerson("Caio"))
	require.NoError(t, err)
	cat, err := repo.SaveCategory(ctx, core.Category{Name: "Saude"})
	require.NoError(t, err)

	e := core.Entry{
		Description: "Consulta",
		DueDate:     core.NewDate(2025, 4, 2),
		Amount:      decimal.NewFromInt(200),
		Type:        core.Expense,
		CategoryID:  cat.ID + 100,
		PersonID:    person.ID,
	}
	_, err = repo.SaveEntry(ctx, e)
	var nf *core.NotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, core.ResourceCategory, nf.Resource)
	assert.Equal(t, cat.ID+100, nf.ID)

	e.CategoryID = cat.ID
	e.PersonID = person.ID + 100
	_, err = repo.SaveEntry(ctx, e)
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, core.ResourcePerson, nf.Resource)

	e.PersonID = person.ID
	e, err = repo.SaveEntry(ctx, e)
	require.NoError(t, err)

	e.CategoryID = cat.ID + 100
	_, err = repo.SaveEntry(ctx, e)
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, core.ResourceCategory, nf.Resource)

	all, err := repo.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func ids(entries []core.Entry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}
