package services

import (
	"context"
	"time"

	"ledgerbook/internal/cache"
	"ledgerbook/internal/core"
	"ledgerbook/internal/storage"
)

// Resolver turns foreign ids into records, failing with core.NotFoundError
// when the row is absent. ResolvePerson and ResolveCategory always read the
// store. The optional caches only back the display names used by Details and
// are invalidated by writes made through this process, so they suit a single
// process owning the database.
type Resolver struct {
	people     storage.PersonStore
	categories storage.CategoryStore

	personCache   cache.Cache[int64, core.Person]
	categoryCache cache.Cache[int64, core.Category]
}

func NewResolver(people storage.PersonStore, categories storage.CategoryStore) *Resolver {
	return &Resolver{people: people, categories: categories}
}

// NewCachedResolver keeps up to size rows of each kind for ttl. The returned
// cleaners belong to a cache.Manager.
func NewCachedResolver(people storage.PersonStore, categories storage.CategoryStore, size int, ttl time.Duration) (*Resolver, []cache.Cleaner) {
	pc := cache.NewLRUCache[int64, core.Person](size, ttl)
	cc := cache.NewLRUCache[int64, core.Category](size, ttl)
	r := &Resolver{
		people:        people,
		categories:    categories,
		personCache:   pc,
		categoryCache: cc,
	}
	return r, []cache.Cleaner{pc, cc}
}

func (r *Resolver) ResolvePerson(ctx context.Context, id int64) (core.Person, error) {
	p, found, err := r.people.FindPerson(ctx, id)
	if err != nil {
		return core.Person{}, err
	}
	if !found {
		r.InvalidatePerson(id)
		return core.Person{}, core.NotFound(core.ResourcePerson, id)
	}
	if r.personCache != nil {
		r.personCache.Set(id, p)
	}
	return p, nil
}

func (r *Resolver) ResolveCategory(ctx context.Context, id int64) (core.Category, error) {
	c, found, err := r.categories.FindCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if !found {
		r.InvalidateCategory(id)
		return core.Category{}, core.NotFound(core.ResourceCategory, id)
	}
	if r.categoryCache != nil {
		r.categoryCache.Set(id, c)
	}
	return c, nil
}

// PersonName reads through the cache.
func (r *Resolver) PersonName(ctx context.Context, id int64) (string, error) {
	if r.personCache != nil {
		if p, ok := r.personCache.Get(id); ok {
			return p.Name, nil
		}
	}
	p, err := r.ResolvePerson(ctx, id)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

// CategoryName reads through the cache.
func (r *Resolver) CategoryName(ctx context.Context, id int64) (string, error) {
	if r.categoryCache != nil {
		if c, ok := r.categoryCache.Get(id); ok {
			return c.Name, nil
		}
	}
	c, err := r.ResolveCategory(ctx, id)
	if err != nil {
		return "", err
	}
	return c.Name, nil
}

func (r *Resolver) InvalidatePerson(id int64) {
	if r.personCache != nil {
		r.personCache.Delete(id)
	}
}

func (r *Resolver) InvalidateCategory(id int64) {
	if r.categoryCache != nil {
		r.categoryCache.Delete(id)
	}
}
