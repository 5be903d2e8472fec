package http

import (
	"context"
	"net/http"

	"ledgerbook/internal/core"
	"ledgerbook/internal/filter"
	"ledgerbook/internal/services"
)

// LedgerAPI is the ledger service surface the handlers use.
type LedgerAPI interface {
	Create(ctx context.Context, in core.EntryInput) (core.Entry, error)
	Update(ctx context.Context, id int64, in core.EntryInput) (core.Entry, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (core.Entry, error)
	List(ctx context.Context) ([]core.Entry, error)
	Filter(ctx context.Context, c filter.Criteria) ([]core.Entry, error)
	Details(ctx context.Context, entries []core.Entry) ([]services.EntryDetails, error)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) error {
	in, err := s.readEntry(w, r)
	if err != nil {
		return err
	}
	e, err := s.ledger.Create(r.Context(), in)
	if err != nil {
		return err
	}
	return s.writeEntry(w, r, http.StatusCreated, e)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	in, err := s.readEntry(w, r)
	if err != nil {
		return err
	}
	e, err := s.ledger.Update(r.Context(), id, in)
	if err != nil {
		return err
	}
	return s.writeEntry(w, r, http.StatusOK, e)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.ledger.Delete(r.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	e, err := s.ledger.Get(r.Context(), id)
	if err != nil {
		return err
	}
	return s.writeEntry(w, r, http.StatusOK, e)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) error {
	entries, err := s.ledger.List(r.Context())
	if err != nil {
		return err
	}
	return s.writeEntries(w, r, entries)
}

func (s *Server) handleFilterEntries(w http.ResponseWriter, r *http.Request) error {
	c, err := parseCriteria(r.URL.Query())
	if err != nil {
		return err
	}
	entries, err := s.ledger.Filter(r.Context(), c)
	if err != nil {
		return err
	}
	return s.writeEntries(w, r, entries)
}

func (s *Server) readEntry(w http.ResponseWriter, r *http.Request) (core.EntryInput, error) {
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return core.EntryInput{}, err
	}
	return req.toInput()
}

func (s *Server) writeEntry(w http.ResponseWriter, r *http.Request, status int, e core.Entry) error {
	details, err := s.ledger.Details(r.Context(), []core.Entry{e})
	if err != nil {
		return err
	}
	writeJSON(w, status, entryFromDetails(details[0]))
	return nil
}

func (s *Server) writeEntries(w http.ResponseWriter, r *http.Request, entries []core.Entry) error {
	details, err := s.ledger.Details(r.Context(), entries)
	if err != nil {
		return err
	}
	out := make([]entryResponse, 0, len(details))
	for _, d := range details {
		out = append(out, entryFromDetails(d))
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}
