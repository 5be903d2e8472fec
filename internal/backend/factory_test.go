package backend

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerbook/internal/config"
	"ledgerbook/internal/core"
	"ledgerbook/internal/events"
	kafkaevents "ledgerbook/internal/events/kafka"
	"ledgerbook/internal/log"
	sheetmem "ledgerbook/internal/sheets/memory"
	"ledgerbook/internal/storage"
	"ledgerbook/internal/storage/memory"
)

func newTestFactory() Factory {
	return NewFactory(log.New(log.Config{Output: io.Discard}))
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	app := config.Default()
	app.DataBackend = "sqlite"
	app.EventsBackend = "kafka"
	c, err := FromAppConfig(app)
	require.NoError(t, err)
	assert.Equal(t, SQLiteStorage, c.Storage)
	assert.Equal(t, KafkaEvents, c.Events)
	assert.Equal(t, app.KafkaBrokers, c.KafkaBrokers)

	app.DataBackend = "sheets"
	_, err = FromAppConfig(app)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory only", Config{Storage: MemoryStorage}, false},
		{"sqlite without path", Config{Storage: SQLiteStorage}, true},
		{"postgres without dsn", Config{Storage: PostgresStorage}, true},
		{"unknown storage", Config{Storage: "mongo"}, true},
		{"unknown events", Config{Storage: MemoryStorage, Events: "nats"}, true},
		{"amqp missing queue", Config{Storage: MemoryStorage, Events: AMQPEvents, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
		{"kafka ok", Config{Storage: MemoryStorage, Events: KafkaEvents, KafkaBrokers: []string{"b:9092"}, KafkaTopic: "t"}, false},
		{"google without id", Config{Storage: MemoryStorage, Mirror: GoogleMirror}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateRepository(t *testing.T) {
	ctx := context.Background()
	f := newTestFactory()

	repo, err := f.CreateRepository(ctx, Config{Storage: MemoryStorage})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, repo)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte("Moradia\nLazer\n"), 0o600))
	repo, err = f.CreateRepository(ctx, Config{Storage: MemoryStorage, MemorySeedDir: dir})
	require.NoError(t, err)
	cats, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 2)

	repo, err = f.CreateRepository(ctx, Config{Storage: SQLiteStorage, SQLiteDBPath: filepath.Join(t.TempDir(), "db", "ledger.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	assert.IsType(t, &storage.SQLRepository{}, repo)
	require.NoError(t, repo.Ping(ctx))
	_, err = repo.SaveCategory(ctx, core.Category{Name: "Moradia"})
	require.NoError(t, err)

	_, err = f.CreateRepository(ctx, Config{Storage: "mongo"})
	assert.Error(t, err)
}

func TestCreateEvents(t *testing.T) {
	ctx := context.Background()
	f := newTestFactory()

	pub, err := f.CreatePublisher(ctx, Config{Events: NoEvents})
	require.NoError(t, err)
	assert.IsType(t, events.Nop{}, pub)

	consumer, err := f.CreateConsumer(ctx, Config{})
	require.NoError(t, err)
	assert.Nil(t, consumer)

	pub, err = f.CreatePublisher(ctx, Config{Events: KafkaEvents, KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "entries"})
	require.NoError(t, err)
	assert.IsType(t, &kafkaevents.Publisher{}, pub)
	assert.NoError(t, pub.Close())

	_, err = f.CreateConsumer(ctx, Config{Events: KafkaEvents, KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "entries"})
	assert.Error(t, err, "group id is required to consume")

	_, err = f.CreatePublisher(ctx, Config{Events: "nats"})
	assert.Error(t, err)
}

func TestCreateExporter(t *testing.T) {
	ctx := context.Background()
	f := newTestFactory()

	exp, err := f.CreateExporter(ctx, Config{})
	require.NoError(t, err)
	assert.IsType(t, &sheetmem.Exporter{}, exp)

	_, err = f.CreateExporter(ctx, Config{Mirror: GoogleMirror})
	assert.Error(t, err, "spreadsheet id is required")

	_, err = f.CreateExporter(ctx, Config{Mirror: "excel"})
	assert.Error(t, err)
}
