package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"booklib/internal/config"
	"booklib/internal/jsonserver"
	"booklib/internal/jsonstore"
	"booklib/internal/record"
	"booklib/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	t.Setenv("DB_FILE", testutil.WriteDataset(t, testutil.Dataset))
	t.Setenv("RESPONSE_DELAY", "0s")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000")

	cfg, err := config.LoadServer()
	require.NoError(t, err)
	store, err := jsonstore.Open(cfg.DBFile, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return jsonserver.NewServer(ctx, cfg, store, zap.NewNop()).Handler
}

func TestServer_ListBooks(t *testing.T) {
	handler := newHandler(t)

	r := testutil.NewRequest(http.MethodGet, "/books", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	resp := testutil.RecordHTTPResponse(w)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	var books []record.Record
	require.NoError(t, resp.Decode(&books))
	assert.Len(t, books, 2)
}

func TestServer_CreateUser(t *testing.T) {
	handler := newHandler(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, testutil.NewRequest(http.MethodPost, "/users", map[string]string{
		"firstName": "Grace",
		"email":     "grace@example.com",
	}))

	resp := testutil.RecordHTTPResponse(w)
	require.Equal(t, http.StatusCreated, resp.Code)
	var created record.Record
	require.NoError(t, resp.Decode(&created))
	assert.Equal(t, "2", created.IDString())
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Setenv("DB_FILE", testutil.WriteDataset(t, testutil.Dataset))
	t.Setenv("PORT", "0")
	t.Setenv("DB_WATCH", "on")
	cfg, err := config.LoadServer()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, zap.NewNop()) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}
