package core

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

const (
	Income  EntryType = "INCOME"
	Expense EntryType = "EXPENSE"
)

type (
	EntryType string

	// Date is a calendar date in UTC with no time-of-day component.
	Date struct {
		time.Time
	}

	Address struct {
		Street       string
		Number       string
		Complement   string // optional
		Neighborhood string
		PostalCode   string
		City         string
		State        string
	}

	Person struct {
		ID      int64
		Name    string
		Active  bool
		Address Address
	}

	Category struct {
		ID   int64
		Name string
	}

	// Entry is a single income or expense record. Category and person are
	// held as foreign ids and resolved on demand.
	Entry struct {
		ID          int64
		Description string
		DueDate     Date
		PaymentDate *Date
		Amount      decimal.Decimal
		Note        string
		Type        EntryType
		CategoryID  int64
		PersonID    int64
	}

	// EntryInput carries every mutable field of an entry. Type stays textual
	// until the service normalizes it.
	EntryInput struct {
		Description string
		DueDate     Date
		PaymentDate *Date
		Amount      decimal.Decimal
		Note        string
		Type        string
		CategoryID  int64
		PersonID    int64
	}
)

var (
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
	ErrMissingDueDate   = errors.New("missing due date")
	ErrMissingAmount    = errors.New("missing amount")
	ErrMissingCategory  = errors.New("missing category id")
	ErrMissingPerson    = errors.New("missing person id")
)

// typeAliases maps every accepted spelling, already upper-cased, to its code.
var typeAliases = map[string]EntryType{
	"INCOME":  Income,
	"EXPENSE": Expense,
	"RECEITA": Income,
	"DESPESA": Expense,
}

// ParseEntryType normalizes s case-insensitively into the closed enumeration.
// Anything outside it fails with an InvalidArgumentError.
func ParseEntryType(s string) (EntryType, error) {
	t, ok := typeAliases[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return "", InvalidArgument("type", fmt.Sprintf("%q is not INCOME or EXPENSE", s))
	}
	return t, nil
}

func (t EntryType) String() string {
	return string(t)
}

func (t EntryType) IsValid() bool {
	return t == Income || t == Expense
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, InvalidArgument("date", fmt.Sprintf("%q is not a YYYY-MM-DD date", s))
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Compare returns -1, 0 or +1 comparing calendar days only.
func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON overrides the promoted time.Time encoding.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	return d.UnmarshalText([]byte(s))
}

// Value stores dates as ISO text so lexical and chronological order agree.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v.Year(), int(v.Month()), v.Day())
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into core.Date", src)
	}
}

func (d *Date) scanString(s string) error {
	// Some drivers hand back full timestamps for DATE columns.
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("scan date %q: %w", s, err)
	}
	*d = Date{Time: t}
	return nil
}

// Paid reports whether a payment date is recorded.
func (e Entry) Paid() bool {
	return e.PaymentDate != nil
}

func (a Address) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"street", a.Street},
		{"number", a.Number},
		{"neighborhood", a.Neighborhood},
		{"postal_code", a.PostalCode},
		{"city", a.City},
		{"state", a.State},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return InvalidArgument("address."+f.name, "required")
		}
	}
	return nil
}

func (p Person) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return InvalidArgument("name", ErrEmptyName.Error())
	}
	return p.Address.Validate()
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return InvalidArgument("name", ErrEmptyName.Error())
	}
	return nil
}

// Validate checks field presence only. Type parsing and reference
// resolution belong to the ledger service.
func (in EntryInput) Validate() error {
	if strings.TrimSpace(in.Description) == "" {
		return InvalidArgument("description", ErrEmptyDescription.Error())
	}
	if in.DueDate.IsZero() {
		return InvalidArgument("dueDate", ErrMissingDueDate.Error())
	}
	if strings.TrimSpace(in.Type) == "" {
		return InvalidArgument("type", "required")
	}
	if in.CategoryID <= 0 {
		return InvalidArgument("categoryId", ErrMissingCategory.Error())
	}
	if in.PersonID <= 0 {
		return InvalidArgument("personId", ErrMissingPerson.Error())
	}
	return nil
}
