package services

import (
	"context"
	"fmt"

	"ledgerbook/internal/core"
	"ledgerbook/internal/filter"
	"ledgerbook/internal/log"
	"ledgerbook/internal/storage"
)

// PersonService is plain CRUD over people. Deleting a person still
// referenced by entries fails with core.ConflictError.
type PersonService struct {
	people   storage.PersonStore
	entries  storage.EntryStore
	resolver *Resolver
	logger   *log.Logger
}

func NewPersonService(people storage.PersonStore, entries storage.EntryStore, resolver *Resolver, logger *log.Logger) *PersonService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &PersonService{people: people, entries: entries, resolver: resolver, logger: logger.WithComponent(log.ComponentPeople)}
}

func (s *PersonService) Create(ctx context.Context, p core.Person) (core.Person, error) {
	if err := p.Validate(); err != nil {
		return core.Person{}, err
	}
	p.ID = 0
	p, err := s.people.SavePerson(ctx, p)
	if err != nil {
		return core.Person{}, fmt.Errorf("save person: %w", err)
	}
	s.logger.InfoContext(ctx, "Person created", log.FieldPersonID, p.ID, log.FieldOperation, log.OpCreate)
	return p, nil
}

func (s *PersonService) Get(ctx context.Context, id int64) (core.Person, error) {
	p, found, err := s.people.FindPerson(ctx, id)
	if err != nil {
		return core.Person{}, fmt.Errorf("get person %d: %w", id, err)
	}
	if !found {
		return core.Person{}, core.NotFound(core.ResourcePerson, id)
	}
	return p, nil
}

func (s *PersonService) List(ctx context.Context) ([]core.Person, error) {
	people, err := s.people.ListPeople(ctx)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	return people, nil
}

// Update replaces every field of person id.
func (s *PersonService) Update(ctx context.Context, id int64, p core.Person) (core.Person, error) {
	if err := p.Validate(); err != nil {
		return core.Person{}, err
	}
	p.ID = id
	p, err := s.people.SavePerson(ctx, p)
	if err != nil {
		return core.Person{}, passNotFound(err, "update person %d", id)
	}
	s.resolver.InvalidatePerson(id)
	s.logger.InfoContext(ctx, "Person updated", log.FieldPersonID, id, log.FieldOperation, log.OpUpdate)
	return p, nil
}

func (s *PersonService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := ensureUnreferenced(ctx, s.entries, filter.Criteria{PersonID: &id}, core.ResourcePerson, id); err != nil {
		return err
	}
	ok, err := s.people.DeletePerson(ctx, id)
	if err != nil {
		return passNotFound(err, "delete person %d", id)
	}
	s.resolver.InvalidatePerson(id)
	if !ok {
		return core.NotFound(core.ResourcePerson, id)
	}
	s.logger.InfoContext(ctx, "Person deleted", log.FieldPersonID, id, log.FieldOperation, log.OpDelete)
	return nil
}

// CategoryService is plain CRUD over categories. Deleting a category still
// referenced by entries fails with core.ConflictError.
type CategoryService struct {
	categories storage.CategoryStore
	entries    storage.EntryStore
	resolver   *Resolver
	logger     *log.Logger
}

func NewCategoryService(categories storage.CategoryStore, entries storage.EntryStore, resolver *Resolver, logger *log.Logger) *CategoryService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &CategoryService{categories: categories, entries: entries, resolver: resolver, logger: logger.WithComponent(log.ComponentCategory)}
}

func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.ID = 0
	c, err := s.categories.SaveCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	s.logger.InfoContext(ctx, "Category created", log.FieldCategoryID, c.ID, log.FieldOperation, log.OpCreate)
	return c, nil
}

func (s *CategoryService) Get(ctx context.Context, id int64) (core.Category, error) {
	c, found, err := s.categories.FindCategory(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	if !found {
		return core.Category{}, core.NotFound(core.ResourceCategory, id)
	}
	return c, nil
}

func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) Update(ctx context.Context, id int64, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.ID = id
	c, err := s.categories.SaveCategory(ctx, c)
	if err != nil {
		return core.Category{}, passNotFound(err, "update category %d", id)
	}
	s.resolver.InvalidateCategory(id)
	s.logger.InfoContext(ctx, "Category updated", log.FieldCategoryID, id, log.FieldOperation, log.OpUpdate)
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := ensureUnreferenced(ctx, s.entries, filter.Criteria{CategoryID: &id}, core.ResourceCategory, id); err != nil {
		return err
	}
	ok, err := s.categories.DeleteCategory(ctx, id)
	if err != nil {
		return passNotFound(err, "delete category %d", id)
	}
	s.resolver.InvalidateCategory(id)
	if !ok {
		return core.NotFound(core.ResourceCategory, id)
	}
	s.logger.InfoContext(ctx, "Category deleted", log.FieldCategoryID, id, log.FieldOperation, log.OpDelete)
	return nil
}

// ensureUnreferenced fails with a ConflictError when any entry matches c.
func ensureUnreferenced(ctx context.Context, entries storage.EntryStore, c filter.Criteria, resource string, id int64) error {
	p, err := filter.Compile(c)
	if err != nil {
		return err
	}
	referenced, err := entries.ExistsEntries(ctx, p)
	if err != nil {
		return fmt.Errorf("check %s %d references: %w", resource, id, err)
	}
	if referenced {
		return &core.ConflictError{
			Resource: resource,
			ID:       id,
			Reason:   "still referenced by entries",
		}
	}
	return nil
}

// passNotFound returns typed domain errors as is and wraps everything else.
func passNotFound(err error, format string, id int64) error {
	if core.ResourceOf(err) != "" {
		return err
	}
	return fmt.Errorf(format+": %w", id, err)
}
