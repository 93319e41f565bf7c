package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"jinnarSearch/internal/search/filters"
	"jinnarSearch/internal/search/geo"
	"jinnarSearch/internal/search/session"
)

const (
	readLimit     = 64 << 10
	readDeadline  = 120 * time.Second
	writeDeadline = 5 * time.Second
	pingInterval  = 30 * time.Second
	outboxSize    = 64
)

var errUnknownMessage = errors.New("unknown message type")

// Logger is shared between hubs.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// SessionFactory builds the controller for one page visit.
type SessionFactory func(id, viewerID, rawQuery string, emit func(session.Event)) *session.Controller

// ClientMessage is a command sent by the search page.
type ClientMessage struct {
	Type      string  `json:"type"`
	Field     string  `json:"field,omitempty"`
	Value     string  `json:"value,omitempty"`
	Query     string  `json:"query,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func (c *client) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

// enqueue never blocks. A client that cannot keep up is disconnected.
func (c *client) enqueue(v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		c.shutdown()
		return false
	}
}

// Hub serves search page sessions over WebSocket. Every connection is one
// page visit; closing it closes the session.
type Hub struct {
	upgrader   websocket.Upgrader
	newSession SessionFactory
	viewerID   func(r *http.Request) string
	logger     Logger

	OnOpen  func()
	OnClose func()

	mu       sync.RWMutex
	sessions map[string]*session.Controller
}

func NewHub(newSession SessionFactory, viewerID func(r *http.Request) string, checkOrigin func(r *http.Request) bool, logger Logger) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	if viewerID == nil {
		viewerID = func(*http.Request) string { return "" }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		newSession: newSession,
		viewerID:   viewerID,
		logger:     logger,
		sessions:   make(map[string]*session.Controller),
	}
}

// Len returns the number of open sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// ServeWS upgrades the request and runs the session until the socket closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	viewer := h.viewerID(r)
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("search ws upgrade failed: %v", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, outboxSize),
		done: make(chan struct{}),
	}
	ctrl := h.newSession(c.id, viewer, r.URL.RawQuery, func(ev session.Event) { c.enqueue(ev) })

	h.mu.Lock()
	h.sessions[c.id] = ctrl
	h.mu.Unlock()
	if h.OnOpen != nil {
		h.OnOpen()
	}
	h.logger.Infof("search session %s opened", c.id)

	go h.writeLoop(c)
	ctrl.Start()
	go h.readLoop(c, ctrl)
}

func (h *Hub) readLoop(c *client, ctrl *session.Controller) {
	defer func() {
		c.shutdown()
		ctrl.Close()
		c.conn.Close()

		h.mu.Lock()
		delete(h.sessions, c.id)
		h.mu.Unlock()
		if h.OnClose != nil {
			h.OnClose()
		}
		h.logger.Infof("search session %s closed", c.id)
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(readDeadline))

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.enqueue(errorMessage{Type: "error", Error: "invalid payload"})
			continue
		}
		if err := Dispatch(ctrl, msg); err != nil {
			c.enqueue(errorMessage{Type: "error", Error: err.Error()})
		}
	}
}

// writeLoop is the only writer on the connection.
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Errorf("search session %s write failed: %v", c.id, err)
				c.shutdown()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown()
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Dispatch applies one client command to the session.
func Dispatch(ctrl *session.Controller, msg ClientMessage) error {
	switch msg.Type {
	case "set_field":
		return ctrl.SetField(filters.Field(msg.Field), msg.Value)
	case "location_input":
		return ctrl.LocationInput(msg.Value)
	case "select_suggestion":
		return ctrl.SelectSuggestion(msg.Value)
	case "submit":
		ctrl.Submit()
	case "clear_all":
		ctrl.ClearAll()
	case "navigate":
		ctrl.Navigate(msg.Query)
	case "position":
		if !geo.ValidCoordinates(msg.Latitude, msg.Longitude) {
			ctrl.DenyPosition()
			return fmt.Errorf("position: invalid coordinates")
		}
		ctrl.ProvidePosition(msg.Latitude, msg.Longitude)
	case "position_denied":
		ctrl.DenyPosition()
	default:
		return fmt.Errorf("%w: %q", errUnknownMessage, msg.Type)
	}
	return nil
}
