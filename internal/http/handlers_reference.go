package http

import (
	"context"
	"net/http"

	"ledgerbook/internal/core"
)

type PersonAPI interface {
	Create(ctx context.Context, p core.Person) (core.Person, error)
	Get(ctx context.Context, id int64) (core.Person, error)
	List(ctx context.Context) ([]core.Person, error)
	Update(ctx context.Context, id int64, p core.Person) (core.Person, error)
	Delete(ctx context.Context, id int64) error
}

type CategoryAPI interface {
	Create(ctx context.Context, c core.Category) (core.Category, error)
	Get(ctx context.Context, id int64) (core.Category, error)
	List(ctx context.Context) ([]core.Category, error)
	Update(ctx context.Context, id int64, c core.Category) (core.Category, error)
	Delete(ctx context.Context, id int64) error
}

func (s *Server) handleCreatePerson(w http.ResponseWriter, r *http.Request) error {
	var req personRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	p, err := s.people.Create(r.Context(), req.toCore())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, personFromCore(p))
	return nil
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	p, err := s.people.Get(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, personFromCore(p))
	return nil
}

func (s *Server) handleListPeople(w http.ResponseWriter, r *http.Request) error {
	people, err := s.people.List(r.Context())
	if err != nil {
		return err
	}
	out := make([]personResponse, 0, len(people))
	for _, p := range people {
		out = append(out, personFromCore(p))
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (s *Server) handleUpdatePerson(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req personRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	p, err := s.people.Update(r.Context(), id, req.toCore())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, personFromCore(p))
	return nil
}

func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.people.Delete(r.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) error {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	c, err := s.categories.Create(r.Context(), core.Category{Name: req.Name})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, categoryFromCore(c))
	return nil
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	c, err := s.categories.Get(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, categoryFromCore(c))
	return nil
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) error {
	categories, err := s.categories.List(r.Context())
	if err != nil {
		return err
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryFromCore(c))
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	c, err := s.categories.Update(r.Context(), id, core.Category{Name: req.Name})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, categoryFromCore(c))
	return nil
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.categories.Delete(r.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
