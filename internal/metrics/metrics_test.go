package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentCountsByStatus(t *testing.T) {
	m := NewManager("test")
	h := m.Instrument("categories", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fail") != "" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/categories", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/categories", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/categories?fail=1", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("categories", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("categories", "502")))
}

func TestUpstreamAndDiscards(t *testing.T) {
	m := NewManager("test")
	m.ObserveUpstream("gigs_search", 30*time.Millisecond, nil)
	m.ObserveUpstream("gigs_search", time.Second, errors.New("boom"))
	m.StaleDiscard(KindSuggestions)
	m.StaleDiscard(KindSuggestions)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamErrors.WithLabelValues("gigs_search")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StaleDiscards.WithLabelValues(KindSuggestions)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "test_upstream_request_duration_seconds_count{upstream=\"gigs_search\"} 2"))
}
