package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseEntryType(t *testing.T) {
	cases := []struct {
		in   string
		want EntryType
		ok   bool
	}{
		{"INCOME", Income, true},
		{"income", Income, true},
		{" Expense ", Expense, true},
		{"RECEITA", Income, true},
		{"receita", Income, true},
		{"despesa", Expense, true},
		{"DESPESA", Expense, true},
		{"renda", "", false},
		{"", "", false},
		{"INCOMES", "", false},
	}
	for _, tc := range cases {
		got, err := ParseEntryType(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("%q expected invalid argument, got %v", tc.in, err)
		}
	}
}

func TestDateParseAndCompare(t *testing.T) {
	d, err := ParseDate("2025-06-15")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.String() != "2025-06-15" {
		t.Fatalf("unexpected string %q", d.String())
	}
	if d.Compare(NewDate(2025, 6, 15)) != 0 {
		t.Fatalf("expected equal dates")
	}
	if d.Compare(NewDate(2025, 1, 1)) <= 0 || d.Compare(NewDate(2025, 12, 31)) >= 0 {
		t.Fatalf("unexpected ordering")
	}
	if _, err := ParseDate("15/06/2025"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestDateJSONAndScan(t *testing.T) {
	b, err := json.Marshal(NewDate(2025, 1, 2))
	if err != nil || string(b) != `"2025-01-02"` {
		t.Fatalf("marshal: %s %v", b, err)
	}
	var d Date
	if err := json.Unmarshal([]byte(`"2024-02-29"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Compare(NewDate(2024, 2, 29)) != 0 {
		t.Fatalf("unexpected date %s", d)
	}

	for _, src := range []any{"2025-03-04", []byte("2025-03-04T00:00:00Z"), time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC)} {
		var got Date
		if err := got.Scan(src); err != nil {
			t.Fatalf("scan %v: %v", src, err)
		}
		if got.String() != "2025-03-04" {
			t.Fatalf("scan %v gave %s", src, got)
		}
	}
	if err := d.Scan(42); err == nil {
		t.Fatalf("expected error scanning int")
	}
}

func validAddress() Address {
	return Address{
		Street:       "Rua das Flores",
		Number:       "10",
		Neighborhood: "Centro",
		PostalCode:   "58000-000",
		City:         "Joao Pessoa",
		State:        "PB",
	}
}

func TestPersonValidate(t *testing.T) {
	good := Person{Name: "Ana", Active: true, Address: validAddress()}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	noName := good
	noName.Name = "  "
	noCity := good
	noCity.Address.City = ""
	for i, p := range []Person{noName, noCity} {
		if err := p.Validate(); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("case %d expected invalid argument, got %v", i, err)
		}
	}

	// complement stays optional
	good.Address.Complement = ""
	if err := good.Validate(); err != nil {
		t.Fatalf("complement should be optional: %v", err)
	}
}

func TestEntryInputValidate(t *testing.T) {
	good := EntryInput{
		Description: "Aluguel",
		DueDate:     NewDate(2025, 1, 10),
		Amount:      decimal.RequireFromString("1500.00"),
		Type:        "despesa",
		CategoryID:  1,
		PersonID:    1,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []func(*EntryInput){
		func(in *EntryInput) { in.Description = "" },
		func(in *EntryInput) { in.DueDate = Date{} },
		func(in *EntryInput) { in.Type = " " },
		func(in *EntryInput) { in.CategoryID = 0 },
		func(in *EntryInput) { in.PersonID = -1 },
	}
	for i, mutate := range bads {
		in := good
		mutate(&in)
		if err := in.Validate(); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("case %d expected invalid argument, got %v", i, err)
		}
	}
}

func TestErrorsCarryResource(t *testing.T) {
	err := NotFound(ResourceCategory, 7)
	if !errors.Is(err, ErrNotFound) || ResourceOf(err) != ResourceCategory {
		t.Fatalf("unexpected error tagging: %v", err)
	}
	conflict := &ConflictError{Resource: ResourcePerson, ID: 3, Reason: "referenced by 2 entries"}
	if !errors.Is(conflict, ErrConflict) || ResourceOf(conflict) != ResourcePerson {
		t.Fatalf("unexpected conflict tagging: %v", conflict)
	}
	if ResourceOf(errors.New("boom")) != "" {
		t.Fatalf("plain errors carry no resource")
	}
}
