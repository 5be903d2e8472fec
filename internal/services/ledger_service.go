package services

import (
	"context"
	"fmt"

	"ledgerbook/internal/core"
	"ledgerbook/internal/events"
	"ledgerbook/internal/filter"
	"ledgerbook/internal/log"
	"ledgerbook/internal/metrics"
	"ledgerbook/internal/storage"
)

// LedgerService owns the entry lifecycle. Every write validates shape, then
// the type, then both references, and only then touches the store.
type LedgerService struct {
	entries   storage.EntryStore
	resolver  *Resolver
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *log.Logger
}

// EntryDetails is an entry with its category and person names resolved.
type EntryDetails struct {
	core.Entry
	CategoryName string
	PersonName   string
}

func NewLedgerService(entries storage.EntryStore, resolver *Resolver, publisher events.Publisher, m *metrics.Metrics, logger *log.Logger) *LedgerService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerService{
		entries:   entries,
		resolver:  resolver,
		publisher: publisher,
		metrics:   m,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

func (s *LedgerService) Create(ctx context.Context, in core.EntryInput) (core.Entry, error) {
	if err := in.Validate(); err != nil {
		return core.Entry{}, err
	}
	e, err := s.build(ctx, in)
	if err != nil {
		return core.Entry{}, err
	}

	e, err = s.entries.SaveEntry(ctx, e)
	if err != nil {
		return core.Entry{}, fmt.Errorf("save entry: %w", err)
	}

	s.logEntry(ctx, "Entry created", log.OpCreate, e)
	s.written(ctx, events.ActionCreated, e.ID)
	return e, nil
}

// Update replaces every mutable field of entry id with in. Optional fields
// absent from in are cleared.
func (s *LedgerService) Update(ctx context.Context, id int64, in core.EntryInput) (core.Entry, error) {
	if err := in.Validate(); err != nil {
		return core.Entry{}, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return core.Entry{}, err
	}
	e, err := s.build(ctx, in)
	if err != nil {
		return core.Entry{}, err
	}
	e.ID = id

	e, err = s.entries.SaveEntry(ctx, e)
	if err != nil {
		return core.Entry{}, fmt.Errorf("save entry %d: %w", id, err)
	}

	s.logEntry(ctx, "Entry updated", log.OpUpdate, e)
	s.written(ctx, events.ActionUpdated, id)
	return e, nil
}

// Delete removes entry id; a missing id fails with core.NotFoundError.
func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	ok, err := s.entries.DeleteEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	if !ok {
		return core.NotFound(core.ResourceEntry, id)
	}

	s.logger.InfoContext(ctx, "Entry deleted", log.FieldEntryID, id, log.FieldOperation, log.OpDelete)
	s.written(ctx, events.ActionDeleted, id)
	return nil
}

func (s *LedgerService) Get(ctx context.Context, id int64) (core.Entry, error) {
	e, found, err := s.entries.FindEntry(ctx, id)
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry %d: %w", id, err)
	}
	if !found {
		return core.Entry{}, core.NotFound(core.ResourceEntry, id)
	}
	return e, nil
}

func (s *LedgerService) List(ctx context.Context) ([]core.Entry, error) {
	entries, err := s.entries.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// Filter returns the entries matching every criterion present in c. Empty
// criteria behave like List.
func (s *LedgerService) Filter(ctx context.Context, c filter.Criteria) ([]core.Entry, error) {
	p, err := filter.Compile(c)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.FindEntries(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("filter entries: %w", err)
	}
	s.logger.DebugContext(ctx, "Entries filtered",
		log.FieldOperation, log.OpFilter,
		"clauses", len(p.Clauses),
		"matches", len(entries))
	return entries, nil
}

// Details resolves category and person names for entries. A reference that
// no longer resolves fails the whole call.
func (s *LedgerService) Details(ctx context.Context, entries []core.Entry) ([]EntryDetails, error) {
	categories := map[int64]string{}
	people := map[int64]string{}
	out := make([]EntryDetails, 0, len(entries))
	for _, e := range entries {
		name, ok := categories[e.CategoryID]
		if !ok {
			var err error
			if name, err = s.resolver.CategoryName(ctx, e.CategoryID); err != nil {
				return nil, err
			}
			categories[e.CategoryID] = name
		}
		person, ok := people[e.PersonID]
		if !ok {
			var err error
			if person, err = s.resolver.PersonName(ctx, e.PersonID); err != nil {
				return nil, err
			}
			people[e.PersonID] = person
		}
		out = append(out, EntryDetails{Entry: e, CategoryName: name, PersonName: person})
	}
	return out, nil
}

// build normalizes the type and checks both references.
func (s *LedgerService) build(ctx context.Context, in core.EntryInput) (core.Entry, error) {
	t, err := core.ParseEntryType(in.Type)
	if err != nil {
		return core.Entry{}, err
	}
	if _, err := s.resolver.ResolveCategory(ctx, in.CategoryID); err != nil {
		return core.Entry{}, err
	}
	if _, err := s.resolver.ResolvePerson(ctx, in.PersonID); err != nil {
		return core.Entry{}, err
	}

	return core.Entry{
		Description: in.Description,
		DueDate:     in.DueDate,
		PaymentDate: in.PaymentDate,
		Amount:      in.Amount,
		Note:        in.Note,
		Type:        t,
		CategoryID:  in.CategoryID,
		PersonID:    in.PersonID,
	}, nil
}

// written records the write and publishes its event. Publish failures are
// logged only; the write already happened.
func (s *LedgerService) written(ctx context.Context, action events.Action, id int64) {
	s.metrics.EntryWritten(string(action))
	if err := s.publisher.Publish(ctx, events.NewEntryEvent(action, id)); err != nil {
		s.metrics.PublishFailed()
		s.logger.ErrorContext(ctx, "Failed to publish entry event",
			log.FieldEntryID, id,
			log.FieldAction, action,
			log.FieldError, err)
	}
}

func (s *LedgerService) logEntry(ctx context.Context, msg, op string, e core.Entry) {
	fields := log.NewFields().
		WithOperation(op).
		WithEntry(e.ID, e.Type.String(), core.FormatAmount(e.Amount), e.DueDate.String(), e.CategoryID, e.PersonID)
	s.logger.InfoContext(ctx, msg, fields.ToSlice()...)
}
