// Package events carries ledger change notifications from the services to
// the mirror worker. Messages hold only the entry id; consumers reload state
// from storage.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return true
	}
	return false
}

type EntryEvent struct {
	ID         uuid.UUID `json:"id"`
	Action     Action    `json:"action"`
	EntryID    int64     `json:"entryId"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewEntryEvent(action Action, entryID int64) EntryEvent {
	return EntryEvent{
		ID:         uuid.New(),
		Action:     action,
		EntryID:    entryID,
		OccurredAt: time.Now().UTC(),
	}
}

func (e EntryEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal decodes an event and rejects unknown actions.
func Unmarshal(data []byte) (EntryEvent, error) {
	var e EntryEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return EntryEvent{}, fmt.Errorf("decode entry event: %w", err)
	}
	if !e.Action.IsValid() {
		return EntryEvent{}, fmt.Errorf("decode entry event: unknown action %q", e.Action)
	}
	return e, nil
}

type (
	Publisher interface {
		Publish(ctx context.Context, e EntryEvent) error
		Close() error
	}

	// Handler processes one event. A non-nil error asks the broker to
	// redeliver it.
	Handler func(ctx context.Context, e EntryEvent) error

	Consumer interface {
		// Consume blocks until ctx is done or the subscription fails.
		Consume(ctx context.Context, h Handler) error
		Close() error
	}
)

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, EntryEvent) error { return nil }
func (Nop) Close() error                              { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []EntryEvent
	// Err, when set, is returned from Publish after recording.
	Err error
}

func (r *Recorder) Publish(_ context.Context, e EntryEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.Err
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []EntryEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EntryEvent(nil), r.events...)
}
