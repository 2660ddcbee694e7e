// Package jsonserver serves a jsonstore.Store over a json-server compatible REST API.
package jsonserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"booklib/internal/httpx"
	"booklib/internal/jsonstore"
	"booklib/internal/record"

	"go.uber.org/zap"
)

type HTTPHandler struct {
	store  *jsonstore.Store
	logger *zap.Logger
}

func NewHTTPHandler(store *jsonstore.Store, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{store: store, logger: logger}
}

// Routes registers the API on mux.
func (h *HTTPHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("GET /db", h.DB)
	mux.HandleFunc("GET /{collection}", h.List)
	mux.HandleFunc("POST /{collection}", h.Create)
	mux.HandleFunc("GET /{collection}/{id}", h.Get)
	mux.HandleFunc("PUT /{collection}/{id}", h.Replace)
	mux.HandleFunc("PATCH /{collection}/{id}", h.Patch)
	mux.HandleFunc("DELETE /{collection}/{id}", h.Delete)
}

// Health handles GET /healthz
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DB handles GET /db
func (h *HTTPHandler) DB(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.store.Snapshot())
}

// List handles GET /{collection}. Query parameters filter by field equality;
// q, _sort, _order, _page and _limit behave as in json-server.
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.PathValue("collection"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, total := parseListParams(r.URL.Query()).apply(items)
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	httpx.JSON(w, http.StatusOK, page)
}

// Get handles GET /{collection}/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.Get(r.PathValue("collection"), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

// Create handles POST /{collection}
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	rec, ok := h.decode(w, r)
	if !ok {
		return
	}
	if err := record.ValidateRecord(collection, rec); err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.store.Create(collection, rec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Debug("record created", zap.String("collection", collection), zap.String("id", created.IDString()))
	httpx.JSON(w, http.StatusCreated, created)
}

// Replace handles PUT /{collection}/{id}
func (h *HTTPHandler) Replace(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	rec, ok := h.decode(w, r)
	if !ok {
		return
	}
	if err := record.ValidateRecord(collection, rec); err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.store.Replace(collection, r.PathValue("id"), rec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

// Patch handles PATCH /{collection}/{id}
func (h *HTTPHandler) Patch(w http.ResponseWriter, r *http.Request) {
	collection, id := r.PathValue("collection"), r.PathValue("id")
	fields, ok := h.decode(w, r)
	if !ok {
		return
	}

	updated, err := h.store.Patch(collection, id, fields, func(merged record.Record) error {
		return record.ValidateRecord(collection, merged)
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /{collection}/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.PathValue("collection"), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, record.Record{})
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request) (record.Record, bool) {
	var rec record.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", nil)
			return nil, false
		}
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_JSON", "Request body must be a JSON object", nil)
		return nil, false
	}
	if rec == nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_JSON", "Request body must be a JSON object", nil)
		return nil, false
	}
	return rec, true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs record.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		details := make([]httpx.ErrorDetail, len(verrs))
		for i, e := range verrs {
			details[i] = httpx.ErrorDetail{Field: e.Field, Message: e.Message}
		}
		httpx.JSONError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid record", details)
	case errors.Is(err, jsonstore.ErrNotFound), errors.Is(err, jsonstore.ErrUnknownCollection):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, jsonstore.ErrConflict):
		httpx.JSONError(w, r, http.StatusConflict, "CONFLICT", err.Error(), nil)
	default:
		h.logger.Error("store failure", zap.String("path", r.URL.Path), zap.Error(err))
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}

func matches(item record.Record, query map[string][]string) bool {
	for field, values := range query {
		if len(values) == 0 {
			continue
		}
		got, ok := item[field]
		if !ok {
			return false
		}
		want := values[0]
		if !record.LooseEqual(got, want) && fmt.Sprint(got) != want {
			return false
		}
	}
	return true
}
