// Package testutil starts throwaway mock APIs and builds requests for tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"booklib/internal/config"
	"booklib/internal/jsonserver"
	"booklib/internal/jsonstore"

	"go.uber.org/zap"
)

// Dataset is a small document in the mock API's file format.
const Dataset = `{
  "books": [
    {"id": 1, "title": "Dune", "authors": ["Frank Herbert"], "thumbnailUrl": "https://covers.example.com/dune.jpg"},
    {"id": 2, "title": "Emma", "authors": ["Jane Austen"]}
  ],
  "cart": [],
  "users": [
    {"id": 1, "firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com"}
  ]
}`

// WriteDataset writes content to a fresh file in a temp dir and returns its path.
func WriteDataset(t testing.TB, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

// API is a running mock API backed by a temp file.
type API struct {
	URL   string
	Store *jsonstore.Store
}

// NewAPI serves dataset on a local port until the test ends.
func NewAPI(t testing.TB, dataset string) *API {
	t.Helper()
	store, err := jsonstore.Open(WriteDataset(t, dataset), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.Server{
		AllowedOrigins: []string{"*"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		MaxBodyBytes:   1 << 20,
	}
	srv := httptest.NewServer(jsonserver.Handler(ctx, cfg, store, zap.NewNop()))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &API{URL: srv.URL, Store: store}
}

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// RecordResponse is a decoded recorder result.
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   []byte
}

// RecordHTTPResponse reads the recorder's result.
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)
	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyBytes,
	}
}

// Decode unmarshals the body into v.
func (r RecordResponse) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}
