// Package memory is a process-local Repository used for development and
// tests. Rows live in maps guarded by a single mutex.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"ledgerbook/internal/core"
	"ledgerbook/internal/filter"
)

type Store struct {
	mu         sync.Mutex
	nextID     map[string]int64
	people     map[int64]core.Person
	categories map[int64]core.Category
	entries    map[int64]core.Entry
}

func New() *Store {
	return &Store{
		nextID:     map[string]int64{},
		people:     map[int64]core.Person{},
		categories: map[int64]core.Category{},
		entries:    map[int64]core.Entry{},
	}
}

// NewFromFiles seeds categories from base/seed_categories.txt, one name per
// line. A missing file yields an empty store.
func NewFromFiles(base string) *Store {
	s := New()
	for _, name := range readLines(filepath.Join(base, "seed_categories.txt")) {
		id := s.allocate(core.ResourceCategory)
		s.categories[id] = core.Category{ID: id, Name: name}
	}
	return s
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// allocate must be called with mu held.
func (s *Store) allocate(resource string) int64 {
	s.nextID[resource]++
	return s.nextID[resource]
}

func (s *Store) SavePerson(_ context.Context, p core.Person) (core.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.allocate(core.ResourcePerson)
	} else if _, ok := s.people[p.ID]; !ok {
		return core.Person{}, core.NotFound(core.ResourcePerson, p.ID)
	}
	s.people[p.ID] = p
	return p, nil
}

func (s *Store) FindPerson(_ context.Context, id int64) (core.Person, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.people[id]
	return p, ok, nil
}

func (s *Store) ListPeople(context.Context) ([]core.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.people, func(p core.Person) int64 { return p.ID }), nil
}

func (s *Store) DeletePerson(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.people[id]; !ok {
		return false, nil
	}
	if s.referenced(func(e core.Entry) bool { return e.PersonID == id }) {
		return false, &core.ConflictError{Resource: core.ResourcePerson, ID: id, Reason: "still referenced by entries"}
	}
	delete(s.people, id)
	return true, nil
}

func (s *Store) SaveCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.allocate(core.ResourceCategory)
	} else if _, ok := s.categories[c.ID]; !ok {
		return core.Category{}, core.NotFound(core.ResourceCategory, c.ID)
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) FindCategory(_ context.Context, id int64) (core.Category, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	return c, ok, nil
}

func (s *Store) ListCategories(context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.categories, func(c core.Category) int64 { return c.ID }), nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return false, nil
	}
	if s.referenced(func(e core.Entry) bool { return e.CategoryID == id }) {
		return false, &core.ConflictError{Resource: core.ResourceCategory, ID: id, Reason: "still referenced by entries"}
	}
	delete(s.categories, id)
	return true, nil
}

func (s *Store) SaveEntry(_ context.Context, e core.Entry) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID != 0 {
		if _, ok := s.entries[e.ID]; !ok {
			return core.Entry{}, core.NotFound(core.ResourceEntry, e.ID)
		}
	}
	// foreign keys
	if _, ok := s.categories[e.CategoryID]; !ok {
		return core.Entry{}, core.NotFound(core.ResourceCategory, e.CategoryID)
	}
	if _, ok := s.people[e.PersonID]; !ok {
		return core.Entry{}, core.NotFound(core.ResourcePerson, e.PersonID)
	}
	if e.ID == 0 {
		e.ID = s.allocate(core.ResourceEntry)
	}
	s.entries[e.ID] = cloneEntry(e)
	return e, nil
}

func (s *Store) FindEntry(_ context.Context, id int64) (core.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return cloneEntry(e), ok, nil
}

func (s *Store) ListEntries(ctx context.Context) ([]core.Entry, error) {
	return s.FindEntries(ctx, filter.Predicate{})
}

func (s *Store) FindEntries(_ context.Context, p filter.Predicate) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Entry{}
	for _, e := range sortedValues(s.entries, func(e core.Entry) int64 { return e.ID }) {
		if p.Match(e) {
			out = append(out, cloneEntry(e))
		}
	}
	return out, nil
}

func (s *Store) ExistsEntries(_ context.Context, p filter.Predicate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.referenced(p.Match), nil
}

func (s *Store) DeleteEntry(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return false, nil
	}
	delete(s.entries, id)
	return true, nil
}

// referenced must be called with mu held.
func (s *Store) referenced(match func(core.Entry) bool) bool {
	for _, e := range s.entries {
		if match(e) {
			return true
		}
	}
	return false
}

// cloneEntry detaches the payment date pointer from the caller's copy.
func cloneEntry(e core.Entry) core.Entry {
	if e.PaymentDate != nil {
		d := *e.PaymentDate
		e.PaymentDate = &d
	}
	return e
}

func sortedValues[T any](m map[int64]T, id func(T) int64) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	seen := map[string]struct{}{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
