package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinnarSearch/internal/models"
	"jinnarSearch/internal/search/ambient"
	"jinnarSearch/internal/search/filters"
	"jinnarSearch/internal/search/session"
	"jinnarSearch/internal/search/suggest"
	"jinnarSearch/internal/services"
)

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

type stubSearcher struct{}

func (stubSearcher) Search(ctx context.Context, q filters.Query, meta services.SearchMeta) ([]models.Gig, error) {
	if q.Has(filters.ParamSearch) {
		return []models.Gig{{ID: "g1", Title: "Gardening"}}, nil
	}
	return []models.Gig{}, nil
}

type stubGeocoder struct{}

func (stubGeocoder) Suggest(ctx context.Context, text string) ([]models.Suggestion, error) {
	return []models.Suggestion{{PlaceID: "1", DisplayName: text}}, nil
}

func (stubGeocoder) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	return "Arusha, Tanzania", nil
}

type wireEvent struct {
	Type     string              `json:"type"`
	Error    string              `json:"error"`
	State    *session.State      `json:"state"`
	Results  *models.ResultsView `json:"results"`
	Location *ambient.Snapshot   `json:"location"`
}

func newTestHub(t *testing.T, configure ...func(*Hub)) (*Hub, *httptest.Server) {
	t.Helper()
	factory := func(id, viewerID, rawQuery string, emit func(session.Event)) *session.Controller {
		return session.New(id, viewerID, rawQuery, session.Deps{Searcher: stubSearcher{}, Geocoder: stubGeocoder{}}, session.Config{
			Suggest: suggest.Config{Debounce: time.Millisecond},
		}, emit)
	}
	hub := NewHub(factory, nil, nil, nopLogger{})
	for _, fn := range configure {
		fn(hub)
	}
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(server.Close)
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, rawQuery string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/search?" + rawQuery
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads events until match returns true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(wireEvent) bool) wireEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev wireEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		if match(ev) {
			return ev
		}
	}
}

func TestSessionOverWebSocket(t *testing.T) {
	hub, server := newTestHub(t)
	conn := dial(t, server, "category=c1")

	state := readUntil(t, conn, func(ev wireEvent) bool { return ev.Type == "state" })
	assert.Equal(t, "c1", state.State.Committed.CategoryID)

	empty := readUntil(t, conn, func(ev wireEvent) bool {
		return ev.Type == "results" && ev.Results.State != models.ResultsLoading
	})
	assert.Equal(t, models.ResultsEmpty, empty.Results.State)
	assert.Equal(t, models.MessageNoServices, empty.Results.Message)
	assert.Equal(t, 1, hub.Len())

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "set_field", Field: "searchTerm", Value: "garden"}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "submit"}))

	committed := readUntil(t, conn, func(ev wireEvent) bool {
		return ev.Type == "state" && ev.State.Committed.SearchTerm == "garden"
	})
	assert.Equal(t, "category=c1&search=garden", committed.State.URLQuery)

	ok := readUntil(t, conn, func(ev wireEvent) bool {
		return ev.Type == "results" && ev.Results.State == models.ResultsOK
	})
	require.Len(t, ok.Results.Gigs, 1)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "position", Latitude: -3.37, Longitude: 36.68}))
	loc := readUntil(t, conn, func(ev wireEvent) bool {
		return ev.Type == "location" && ev.Location.Status != ambient.StatusLoading
	})
	assert.Equal(t, "Arusha, Tanzania", loc.Location.Address())
}

func TestSessionReportsBadCommands(t *testing.T) {
	_, server := newTestHub(t)
	conn := dial(t, server, "")

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "set_field", Field: "colour", Value: "red"}))
	ev := readUntil(t, conn, func(ev wireEvent) bool { return ev.Type == "error" })
	assert.Contains(t, ev.Error, "colour")

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "dance"}))
	ev = readUntil(t, conn, func(ev wireEvent) bool { return ev.Type == "error" })
	assert.Contains(t, ev.Error, "unknown message type")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	ev = readUntil(t, conn, func(ev wireEvent) bool { return ev.Type == "error" })
	assert.Equal(t, "invalid payload", ev.Error)
}

func TestClosingSocketEndsSession(t *testing.T) {
	var opened, closed atomic.Int32
	hub, server := newTestHub(t, func(h *Hub) {
		h.OnOpen = func() { opened.Add(1) }
		h.OnClose = func() { closed.Add(1) }
	})

	conn := dial(t, server, "")
	readUntil(t, conn, func(ev wireEvent) bool { return ev.Type == "state" })
	require.Equal(t, 1, hub.Len())

	conn.Close()
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return closed.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), opened.Load())
}
