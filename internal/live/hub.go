// Package live serves collision queries over websockets and tells
// connected clients when the track is reloaded.
package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"honnef.co/go/racetrack/collision"
	"honnef.co/go/racetrack/internal/logging"
)

const writeWait = 5 * time.Second

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub owns the set of connected clients of one engine.
type Hub struct {
	engine *collision.Engine

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
}

func NewHub(engine *collision.Engine) *Hub {
	return &Hub{
		engine:      engine,
		subscribers: make(map[*subscriber]struct{}),
	}
}

func (h *Hub) Engine() *collision.Engine { return h.engine }

// Swap installs t in the engine and notifies every client.
func (h *Hub) Swap(t *collision.Track) {
	if t == nil {
		return
	}
	h.engine.Swap(t)
	h.Broadcast()
}

// Broadcast sends the current reload state to every client. Clients whose
// connection fails are dropped.
func (h *Hub) Broadcast() {
	msg, ok := h.reloaded()
	if !ok {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Logger().Error("failed to marshal reload message", "err", err)
		return
	}

	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		if err := sub.write(data); err != nil {
			logging.Logger().Debug("dropping client", "remote", sub.conn.RemoteAddr(), "err", err)
			h.unsubscribe(sub)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *Hub) reloaded() (reloadedMessage, bool) {
	t := h.engine.Track()
	if t == nil {
		return reloadedMessage{}, false
	}
	f := t.Asset().Field
	return reloadedMessage{
		Type:   typeReloaded,
		Seq:    h.engine.Seq(),
		Width:  f.Width,
		Height: f.Height,
	}, true
}

func (h *Hub) subscribe(conn *websocket.Conn) *subscriber {
	sub := &subscriber{conn: conn}
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	_, ok := h.subscribers[sub]
	delete(h.subscribers, sub)
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
}
