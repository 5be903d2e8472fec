package backend

import (
	"context"

	"ledgerbook/internal/events"
	"ledgerbook/internal/sheets"
	"ledgerbook/internal/storage"
)

// Factory builds the infrastructure behind the services from configuration.
// Callers own the returned values and must Close them.
type Factory interface {
	CreateRepository(ctx context.Context, config Config) (storage.Repository, error)
	CreatePublisher(ctx context.Context, config Config) (events.Publisher, error)
	// CreateConsumer returns nil when events are disabled.
	CreateConsumer(ctx context.Context, config Config) (events.Consumer, error)
	CreateExporter(ctx context.Context, config Config) (sheets.EntryExporter, error)
}

type StorageType string

const (
	MemoryStorage   StorageType = "memory"
	SQLiteStorage   StorageType = "sqlite"
	PostgresStorage StorageType = "postgres"
)

func (t StorageType) IsValid() bool {
	switch t {
	case MemoryStorage, SQLiteStorage, PostgresStorage:
		return true
	}
	return false
}

func (t StorageType) String() string { return string(t) }

type EventsType string

const (
	NoEvents    EventsType = "none"
	AMQPEvents  EventsType = "amqp"
	KafkaEvents EventsType = "kafka"
)

func (t EventsType) IsValid() bool {
	switch t {
	case NoEvents, AMQPEvents, KafkaEvents:
		return true
	}
	return false
}

func (t EventsType) String() string { return string(t) }

type MirrorType string

const (
	MemoryMirror MirrorType = "memory"
	GoogleMirror MirrorType = "google"
)

func (t MirrorType) IsValid() bool {
	return t == MemoryMirror || t == GoogleMirror
}

func (t MirrorType) String() string { return string(t) }
