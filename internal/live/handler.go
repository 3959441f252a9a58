package live

import (
	"encoding/json"
	"image"
	"net/http"

	"github.com/gorilla/websocket"

	"honnef.co/go/racetrack/collision"
	"honnef.co/go/racetrack/internal/logging"
)

const (
	typeOnTrack  = "onTrack"
	typeBlocker  = "blocker"
	typeResult   = "result"
	typeReloaded = "reloaded"
	typeError    = "error"
)

type clientMessage struct {
	Type   string `json:"type"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	VX     int    `json:"vx"`
	VY     int    `json:"vy"`
	Action int    `json:"action"`
}

type onTrackMessage struct {
	Type    string `json:"type"`
	OnTrack bool   `json:"onTrack"`
}

type blockerMessage struct {
	Type    string  `json:"type"`
	Blocked bool    `json:"blocked"`
	PX      float64 `json:"px"`
	PY      float64 `json:"py"`
	T       float64 `json:"t"`
}

type reloadedMessage struct {
	Type   string `json:"type"`
	Seq    uint64 `json:"seq"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type errorMessage struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logging.Logger()
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	sub := h.hub.subscribe(conn)
	defer h.hub.unsubscribe(sub)
	log.Debug("client connected", "remote", r.RemoteAddr)

	writeJSON := func(payload any) bool {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error("failed to marshal response", "err", err)
			return true
		}
		return sub.write(data) == nil
	}

	// New clients learn the current track right away.
	if msg, ok := h.hub.reloaded(); ok {
		if !writeJSON(msg) {
			return
		}
	}

	engine := h.hub.engine
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			log.Debug("client disconnected", "remote", r.RemoteAddr, "err", err)
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.Debug("discarding malformed message", "remote", r.RemoteAddr, "err", err)
			if !writeJSON(errorMessage{Type: typeError, Reason: "malformed message"}) {
				return
			}
			continue
		}

		var resp any
		switch msg.Type {
		case typeOnTrack:
			resp = onTrackMessage{Type: typeResult, OnTrack: engine.IsOnTrack(msg.X, msg.Y)}
		case typeBlocker:
			action, ok := collision.ActionDelta(msg.Action)
			if !ok {
				resp = errorMessage{Type: typeError, Reason: "invalid action"}
				break
			}
			b, blocked := engine.BlockerOnPath(image.Pt(msg.X, msg.Y), image.Pt(msg.VX, msg.VY), action)
			resp = blockerMessage{Type: typeResult, Blocked: blocked, PX: b.X, PY: b.Y, T: b.T}
		default:
			resp = errorMessage{Type: typeError, Reason: "unknown message type " + msg.Type}
		}
		if !writeJSON(resp) {
			return
		}
	}
}
