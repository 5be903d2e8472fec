package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerbook/internal/backend"
	"ledgerbook/internal/config"
	"ledgerbook/internal/core"
	"ledgerbook/internal/log"
	"ledgerbook/internal/sheets"
	sheetmem "ledgerbook/internal/sheets/memory"
	"ledgerbook/internal/storage"
	"ledgerbook/internal/storage/memory"
	"ledgerbook/internal/storage/storagetest"
)

// isolateEnv blanks the variables config.Load reads; blank counts as unset.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvConfigFile, "PORT", "DATA_BACKEND", "SQLITE_DB_PATH", "POSTGRES_DSN",
		"EVENTS_BACKEND", "MIRROR_BACKEND", "LOG_LEVEL", "LOG_FORMAT", "SYNC_INTERVAL",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "worker", "migrate"}, names)
}

func TestMigrateSQLite(t *testing.T) {
	isolateEnv(t)
	dbPath := filepath.Join(t.TempDir(), "nested", "ledger.db")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", dbPath)

	require.NoError(t, execute(t, "migrate"))
	_, err := os.Stat(dbPath)
	assert.NoError(t, err)

	require.NoError(t, execute(t, "migrate"), "migrating twice is a no-op")
}

func TestMigrateFromConfigFlag(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ledger.db")
	cfgPath := filepath.Join(dir, "ledgerbook.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("data_backend: sqlite\nsqlite_db_path: "+dbPath+"\n"), 0o600))

	require.NoError(t, execute(t, "--config", cfgPath, "migrate"))
	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestMigrateMemoryFails(t *testing.T) {
	isolateEnv(t)
	assert.Error(t, execute(t, "migrate"))
}

func TestInvalidConfigFails(t *testing.T) {
	isolateEnv(t)
	t.Setenv("PORT", "abc")
	err := execute(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
}

// fixedFactory hands out prepared stores and exporters.
type fixedFactory struct {
	backend.Factory
	repo     storage.Repository
	exporter sheets.EntryExporter
}

func (f fixedFactory) CreateRepository(context.Context, backend.Config) (storage.Repository, error) {
	return f.repo, nil
}

func (f fixedFactory) CreateExporter(context.Context, backend.Config) (sheets.EntryExporter, error) {
	return f.exporter, nil
}

func TestRunWorkerOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	p, err := store.SavePerson(ctx, storagetest.SamplePerson("Ana"))
	require.NoError(t, err)
	c, err := store.SaveCategory(ctx, core.Category{Name: "Moradia"})
	require.NoError(t, err)
	_, err = store.SaveEntry(ctx, core.Entry{
		Description: "Aluguel",
		DueDate:     core.NewDate(2025, 1, 10),
		Amount:      decimal.RequireFromString("1500"),
		Type:        core.Expense,
		CategoryID:  c.ID,
		PersonID:    p.ID,
	})
	require.NoError(t, err)

	exp := sheetmem.New()
	factory := fixedFactory{Factory: backend.NewFactory(quietLogger()), repo: store, exporter: exp}

	require.NoError(t, runWorker(ctx, config.Default(), quietLogger(), factory, true))
	rows := exp.Snapshot()
	require.Len(t, rows, 1)
	assert.Equal(t, "Moradia", rows[0].Category)
}

func TestRunWorkerNeedsWork(t *testing.T) {
	cfg := config.Default()
	cfg.SyncInterval = 0
	factory := fixedFactory{Factory: backend.NewFactory(quietLogger()), repo: memory.New(), exporter: sheetmem.New()}
	assert.Error(t, runWorker(context.Background(), cfg, quietLogger(), factory, false))
}

func TestRunServeStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Port = "0"
	cfg.ShutdownTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, cfg, quietLogger(), backend.NewFactory(quietLogger())) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
