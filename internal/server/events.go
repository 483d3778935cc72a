package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/gesture"
)

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler streams fired gestures to WebSocket clients as JSON.
type EventsHandler struct {
	clients map[*websocket.Conn]struct{}
	mu      sync.Mutex
	stop    func()
	once    sync.Once
}

// NewEventsHandler broadcasts everything received on events until stop is
// called through Close.
func NewEventsHandler(events <-chan gesture.Event, stop func()) *EventsHandler {
	h := &EventsHandler{
		clients: make(map[*websocket.Conn]struct{}),
		stop:    stop,
	}
	go h.broadcast(events)
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	log.WithField("remote", r.RemoteAddr).Debug("event client connected")

	defer h.drop(conn)

	// Clients only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *EventsHandler) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// ClientCount returns the number of connected clients.
func (h *EventsHandler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *EventsHandler) broadcast(events <-chan gesture.Event) {
	for ev := range events {
		msg, err := json.Marshal(ev)
		if err != nil {
			continue
		}

		h.mu.Lock()
		for conn := range h.clients {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				delete(h.clients, conn)
				conn.Close()
			}
		}
		h.mu.Unlock()
	}
}

// Close ends the subscription and disconnects every client.
func (h *EventsHandler) Close() {
	h.once.Do(func() {
		if h.stop != nil {
			h.stop()
		}
		h.mu.Lock()
		for conn := range h.clients {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			conn.Close()
			delete(h.clients, conn)
		}
		h.mu.Unlock()
	})
}
