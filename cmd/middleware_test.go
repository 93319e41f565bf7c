package main

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinnarSearch/internal/search/marketplace"
)

func TestRequestContextAssignsID(t *testing.T) {
	var seen string
	h := requestContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = marketplace.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search/gigs", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/search/gigs", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	app := &application{errorLog: log.New(&buf, "", 0)}
	h := app.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "close", rec.Header().Get("Connection"))
	assert.Contains(t, buf.String(), "boom")
}

func TestSecureHeaders(t *testing.T) {
	h := secureHeaders(makeResponseJSON(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "deny", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
