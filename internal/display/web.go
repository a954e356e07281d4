// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/spirit_level/internal/level"
)

//go:embed static
var staticFiles embed.FS

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const (
	clientSendBuffer = 32
	writeWait        = 2 * time.Second
)

// OrientationMessage is what a browser sends when its screen rotates.
type OrientationMessage struct {
	Type string `json:"type"` // "orientation"
	Mode string `json:"mode"` // "portrait" or "landscape"
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// WebHub is a level.Display that broadcasts commands to websocket clients.
// Clients may report orientation changes back. A client that falls behind
// loses commands rather than slowing the render loop.
type WebHub struct {
	onOrientation func(level.OrientationMode) bool
	now           func() time.Time
	log           *slog.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	// latest command per key, replayed to new clients
	latest map[string][]byte
}

// NewWebHub creates a hub. onOrientation may be nil.
func NewWebHub(onOrientation func(level.OrientationMode) bool, logger *slog.Logger) *WebHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebHub{
		onOrientation: onOrientation,
		now:           time.Now,
		log:           logger.With("component", "web"),
		clients:       make(map[*wsClient]struct{}),
		latest:        make(map[string][]byte),
	}
}

// Handler serves the level page at /, the command stream at /ws and the
// latest commands at /api/state.
func (h *WebHub) Handler() http.Handler {
	mux := http.NewServeMux()
	static, _ := fs.Sub(staticFiles, "static")
	mux.Handle("/", http.FileServer(http.FS(static)))
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/api/state", h.serveState)
	return mux
}

func (h *WebHub) SetAngleLabel(text string) error {
	h.broadcast(CommandLabel, labelCommand(text, h.now()))
	return nil
}

func (h *WebHub) MoveIndicator(kind level.IndicatorKind, value float64) error {
	h.broadcast(CommandMove, moveCommand(kind, value, h.now()))
	return nil
}

func (h *WebHub) SetOpacity(el level.Element, target float64, d time.Duration, c level.Curve) error {
	h.broadcast(CommandOpacity+":"+string(el), opacityCommand(el, target, d, c, h.now()))
	return nil
}

// ClientCount reports connected clients.
func (h *WebHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *WebHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *WebHub) broadcast(key string, cmd Command) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		h.log.Warn("marshal failed", "type", cmd.Type, "err", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest[key] = payload
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.log.Debug("client behind, dropping command", "type", cmd.Type)
		}
	}
}

// ServeWS upgrades the request and streams commands to the client.
func (h *WebHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade error", "err", err)
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, clientSendBuffer)}

	h.mu.Lock()
	for _, payload := range h.latest {
		select {
		case c.send <- payload:
		default:
		}
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info("client connected", "remote", r.RemoteAddr)

	go h.writePump(c)
	h.readPump(c)
}

func (h *WebHub) writePump(c *wsClient) {
	defer c.conn.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Debug("websocket write error", "err", err)
			h.remove(c)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *WebHub) readPump(c *wsClient) {
	defer h.remove(c)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read error", "err", err)
			}
			return
		}
		var msg OrientationMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "orientation" {
			h.log.Debug("ignoring client message", "payload", string(data))
			continue
		}
		mode, err := level.ParseOrientationMode(msg.Mode)
		if err != nil {
			h.log.Warn("bad orientation from client", "err", err)
			continue
		}
		if h.onOrientation != nil {
			h.onOrientation(mode)
		}
	}
}

func (h *WebHub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.log.Info("client disconnected")
	}
}

func (h *WebHub) serveState(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	state := make(map[string]json.RawMessage, len(h.latest))
	for k, v := range h.latest {
		state[k] = v
	}
	h.mu.Unlock()

	if len(state) == 0 {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		h.log.Warn("json encode error", "err", err)
	}
}
