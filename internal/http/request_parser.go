package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"ledgerbook/internal/core"
	"ledgerbook/internal/filter"
)

const maxBodyBytes = 1 << 20

// badRequestError marks input that could not be read at all, as opposed to
// input that was read and failed validation.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &badRequestError{err: err}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return badRequest(fmt.Errorf("malformed JSON body: %w", err))
	}
	return nil
}

// pathID reads the {id} wildcard.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest(core.InvalidArgument("id", fmt.Sprintf("%q is not a positive integer", raw)))
	}
	return id, nil
}

func (req entryRequest) toInput() (core.EntryInput, error) {
	in := core.EntryInput{
		Description: req.Description,
		Note:        req.Note,
		Type:        req.Type,
		CategoryID:  req.CategoryID,
		PersonID:    req.PersonID,
	}

	due, err := dateField("dueDate", req.DueDate)
	if err != nil {
		return in, err
	}
	if due != nil {
		in.DueDate = *due
	}
	if in.PaymentDate, err = dateField("paymentDate", req.PaymentDate); err != nil {
		return in, err
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return in, err
	}
	in.Amount = amount
	return in, nil
}

// parseAmount accepts a JSON number or string without going through float64.
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, core.InvalidArgument("amount", core.ErrMissingAmount.Error())
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, badRequest(core.InvalidArgument("amount", "not a JSON string or number"))
		}
	}
	return core.ParseAmount(s)
}

// parseCriteria reads the filter query. Absent and blank parameters stay nil.
func parseCriteria(q url.Values) (filter.Criteria, error) {
	var c filter.Criteria
	var err error
	if c.DateFrom, err = optionalDate(q, "dateFrom"); err != nil {
		return c, err
	}
	if c.DateTo, err = optionalDate(q, "dateTo"); err != nil {
		return c, err
	}
	if c.CategoryID, err = optionalID(q, "categoryId"); err != nil {
		return c, err
	}
	if c.PersonID, err = optionalID(q, "personId"); err != nil {
		return c, err
	}
	c.Type = q.Get("type")
	return c, nil
}

func optionalDate(q url.Values, key string) (*core.Date, error) {
	return dateField(key, q.Get(key))
}

// dateField parses an optional YYYY-MM-DD value; blank means absent.
func dateField(field, raw string) (*core.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		var ia *core.InvalidArgumentError
		if errors.As(err, &ia) {
			return nil, badRequest(core.InvalidArgument(field, ia.Reason))
		}
		return nil, badRequest(err)
	}
	return &d, nil
}

func optionalID(q url.Values, key string) (*int64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, badRequest(core.InvalidArgument(key, fmt.Sprintf("%q is not an integer", raw)))
	}
	return &id, nil
}
