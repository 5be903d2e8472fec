package sheets

import (
	"context"
	"strconv"
)

// Header is the first row of every mirror snapshot.
var Header = []string{"ID", "Description", "Due date", "Payment date", "Amount", "Type", "Category", "Person", "Note"}

// Row is one ledger entry flattened for a spreadsheet. Every cell is text so
// amounts keep their exact decimal form.
type Row struct {
	ID          int64
	Description string
	DueDate     string
	PaymentDate string
	Amount      string
	Type        string
	Category    string
	Person      string
	Note        string
}

func (r Row) Cells() []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.Description,
		r.DueDate,
		r.PaymentDate,
		r.Amount,
		r.Type,
		r.Category,
		r.Person,
		r.Note,
	}
}

// EntryExporter replaces the mirrored sheet with rows.
type EntryExporter interface {
	Export(ctx context.Context, rows []Row) error
}
