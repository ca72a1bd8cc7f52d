package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/VictoriaMetrics/metrics"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ds "github.com/oaiiae/contacts-edit/datastores"
	"github.com/oaiiae/contacts-edit/session"
	"github.com/oaiiae/contacts-edit/validate"
)

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newRouter(store ds.ContactsStore, logs *bytes.Buffer) http.Handler {
	logger := slog.New(slog.NewTextHandler(logs, nil))
	return NewRouter(&RouterOptions{EndpointsPrefix: "/api"}, "contacts", "1.0.0", "abc", "now", store, logger)
}

func TestNewRouter(t *testing.T) {
	var logs bytes.Buffer
	h := newRouter(ds.NewContactsInmem(&ds.Contact{ID: 1, Name: "Farooq"}), &logs)

	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/liveness", "").Code)
	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/readiness", "").Code)

	rec := serve(t, h, http.MethodGet, "/api/contacts/1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Farooq")

	rec = serve(t, h, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var session struct{ ID string }
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))

	rec = serve(t, h, http.MethodPost, "/api/sessions/"+session.ID+"/load/1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, logs.String(), "session="+session.ID)
	assert.Contains(t, logs.String(), "contact=1")

	rec = serve(t, h, http.MethodPut, "/api/sessions/"+session.ID+"/contact", `{"id":2,"name":"Bubba","email":"bubba@"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, logs.String(), "error occurred")
	assert.Contains(t, logs.String(), "field=email")

	rec = serve(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `build_info{goversion="`)
	assert.Contains(t, rec.Body.String(), "contact_edit_sessions_open 1")
	assert.Contains(t, rec.Body.String(), `contact_updates_rejected_total{field="email"} 1`)
	assert.Contains(t, rec.Body.String(), "http_requests_total{")
}

func TestNewRouter_UnknownRoute(t *testing.T) {
	var logs bytes.Buffer
	h := newRouter(ds.NewContactsInmem(), &logs)

	assert.Equal(t, http.StatusNotFound, serve(t, h, http.MethodPost, "/api/sessions/junk/path", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, h, http.MethodPost, "/api/contacts/junk/path", `{"name":"Bubba"}`).Code)

	rec := serve(t, h, http.MethodGet, "/metrics", "")
	assert.Contains(t, rec.Body.String(), "contact_edit_sessions_open 0")

	rec = serve(t, h, http.MethodGet, "/api/contacts", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestNewRouter_SessionLimit(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	h := NewRouter(&RouterOptions{EndpointsPrefix: "/api", MaxSessions: 1}, "contacts", "1.0.0", "", "",
		ds.NewContactsInmem(), logger)

	assert.Equal(t, http.StatusCreated, serve(t, h, http.MethodPost, "/api/sessions", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, h, http.MethodPost, "/api/sessions", "").Code)
	assert.Contains(t, logs.String(), session.ErrTooManySessions.Error())
}

func TestNewRouter_Readiness(t *testing.T) {
	store, err := ds.OpenContactsSQLite(context.Background(), ":memory:")
	require.NoError(t, err)

	var logs bytes.Buffer
	h := newRouter(store, &logs)
	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/readiness", "").Code)

	require.NoError(t, store.Close())
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, h, http.MethodGet, "/readiness", "").Code)
	assert.Contains(t, logs.String(), "store not ready")
}

func TestRecoverMiddleware(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	_, api := humatest.New(t)
	api.UseMiddleware(ctxlog{}.recoverMiddleware(logger))
	huma.Get(api, "/panic", func(context.Context, *struct{}) (*struct{}, error) {
		panic("panic argument")
	})

	resp := api.Get("/panic")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, logs.String(), "panic occurred")
	assert.Contains(t, logs.String(), "panic argument")
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		err   error
		level string
		attrs map[string]any
	}{
		{&validate.ValidationError{Field: validate.FieldEmail, Value: "bubba@"}, "WARN",
			map[string]any{"field": "email", "value": "bubba@"}},
		{fmt.Errorf("load: %w", &ds.NotFoundError{ID: 2}), "WARN", map[string]any{"id": float64(2)}},
		{session.ErrNotFound, "WARN", nil},
		{session.ErrTooManySessions, "WARN", nil},
		{&ds.StorageError{Op: "save", Err: errors.New("disk full")}, "ERROR", map[string]any{"store_op": "save"}},
		{&ds.StorageError{Op: "get", Err: context.Canceled}, "INFO", nil},
		{huma.Error404NotFound("id not found"), "WARN", map[string]any{"status": float64(404)}},
		{huma.Error500InternalServerError("boom"), "ERROR", map[string]any{"status": float64(500)}},
		{errors.New("plain"), "ERROR", nil},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&logs, nil))
			ctxlog{}.errorHandler(logger, metrics.NewSet())(context.Background(), tt.err)

			var record map[string]any
			require.NoError(t, json.Unmarshal(logs.Bytes(), &record))
			assert.Equal(t, tt.level, record["level"])
			assert.Equal(t, "error occurred", record["msg"])
			for k, v := range tt.attrs {
				assert.Equal(t, v, record[k], k)
			}
		})
	}
}

func TestErrorHandler_CountsRejectedUpdates(t *testing.T) {
	set := metrics.NewSet()
	handle := ctxlog{}.errorHandler(slog.New(slog.DiscardHandler), set)

	handle(context.Background(), &validate.ValidationError{Field: validate.FieldEmail, Value: "bubba@"})
	handle(context.Background(), &validate.ValidationError{Field: validate.FieldNumber, Value: "123"})
	handle(context.Background(), &validate.ValidationError{Field: validate.FieldNumber, Value: "(((1234567"})
	handle(context.Background(), &ds.NotFoundError{ID: 1})

	var out bytes.Buffer
	set.WritePrometheus(&out)
	assert.Contains(t, out.String(), `contact_updates_rejected_total{field="email"} 1`)
	assert.Contains(t, out.String(), `contact_updates_rejected_total{field="number"} 2`)
}
