package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ports "ledgerbook/internal/sheets"
)

func TestNewRequiresSpreadsheetAndCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spreadsheet id")

	_, err = New(context.Background(), Config{SpreadsheetID: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials")

	_, err = New(context.Background(), Config{SpreadsheetID: "abc", CredentialsFile: "/does/not/exist.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}

func TestQuoteSheet(t *testing.T) {
	assert.Equal(t, "'Ledger'", quoteSheet("Ledger"))
	assert.Equal(t, "'Bob''s book'", quoteSheet("Bob's book"))
}

type call struct {
	method string
	path   string
	body   []byte
}

func TestExportClearsThenWrites(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []call
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, call{r.Method, r.URL.Path, body})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-1", SheetName: "Ledger", Endpoint: srv.URL + "/"})
	require.NoError(t, err)

	rows := []ports.Row{{ID: 1, Description: "Aluguel", DueDate: "2025-01-10", Amount: "1500.00", Type: "EXPENSE", Category: "Moradia", Person: "Ana"}}
	require.NoError(t, c.Export(context.Background(), rows))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodPost, calls[0].method)
	assert.True(t, strings.HasSuffix(calls[0].path, ":clear"), calls[0].path)
	assert.Contains(t, calls[0].path, "sheet-1")
	assert.Equal(t, http.MethodPut, calls[1].method)

	var vr struct {
		Values [][]string `json:"values"`
	}
	require.NoError(t, json.Unmarshal(calls[1].body, &vr))
	require.Len(t, vr.Values, 2)
	assert.Equal(t, ports.Header, vr.Values[0])
	assert.Equal(t, "1500.00", vr.Values[1][4])
}

func TestExportReportsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-1", Endpoint: srv.URL + "/"})
	require.NoError(t, err)
	err = c.Export(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear sheet Ledger")
}
