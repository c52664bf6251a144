package host

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"vidra-player/internal/compositor"
	"vidra-player/internal/engine"
	"vidra-player/internal/renderer"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

// Hub fans engine events and overlay messages out to connected websocket
// clients. It implements engine.Observer so the controller can push ready,
// frame, state and error events, and compositor.SurfaceFactory so overlay
// surfaces live on the same feed.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*wsClient
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan any
}

// NewHub returns a Hub with no connected clients.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*wsClient),
	}
}

// ServeWS handles GET /ws, upgrading the connection and pumping events to it
// until the peer disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	c := &wsClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan any, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Info("websocket client connected", slog.String("client", c.id), slog.Int("clients", n))

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards inbound messages and unregisters the client when the
// connection drops.
func (h *Hub) readPump(c *wsClient) {
	defer h.drop(c)
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) drop(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	_ = c.conn.Close()
	h.log.Info("websocket client disconnected", slog.String("client", c.id), slog.Int("clients", n))
}

// Broadcast queues a message for every connected client. Slow clients have
// the message dropped rather than blocking the playback loop.
func (h *Hub) Broadcast(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.send <- v:
		default:
			h.log.Debug("websocket client lagging, message dropped", slog.String("client", c.id))
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

type readyEvent struct {
	Type     string                   `json:"type"`
	Metadata renderer.ProjectMetadata `json:"metadata"`
}

type frameEvent struct {
	Type  string  `json:"type"`
	Frame int     `json:"frame"`
	Time  float64 `json:"time"`
}

type stateEvent struct {
	Type string `json:"type"`
	Old  string `json:"old"`
	New  string `json:"new"`
}

type errorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// OnReady implements engine.Observer.
func (h *Hub) OnReady(meta renderer.ProjectMetadata) {
	h.Broadcast(readyEvent{Type: "ready", Metadata: meta})
}

// OnFrame implements engine.Observer.
func (h *Hub) OnFrame(frame int, time float64) {
	h.Broadcast(frameEvent{Type: "frame", Frame: frame, Time: time})
}

// OnStateChange implements engine.Observer.
func (h *Hub) OnStateChange(old, new engine.PlaybackState) {
	h.Broadcast(stateEvent{Type: "state", Old: string(old), New: string(new)})
}

// OnError implements engine.Observer.
func (h *Hub) OnError(err error) {
	h.Broadcast(errorEvent{Type: "error", Error: err.Error()})
}

type overlayCreateEvent struct {
	Type    string `json:"type"`
	Surface string `json:"surface"`
	Layer   string `json:"layer"`
	Source  string `json:"source"`
}

type overlayLayoutEvent struct {
	Type     string              `json:"type"`
	Surface  string              `json:"surface"`
	Layer    string              `json:"layer"`
	Geometry compositor.Geometry `json:"geometry"`
}

type overlayDestroyEvent struct {
	Type    string `json:"type"`
	Surface string `json:"surface"`
	Layer   string `json:"layer"`
}

// overlayFrame carries the per-frame sync payload with its source overlay
// attached, keeping the payload's own type tag.
type overlayFrame struct {
	compositor.FrameMessage
	Layer string `json:"layer"`
}

type overlayMessage struct {
	Type    string `json:"type"`
	Layer   string `json:"layer"`
	Payload any    `json:"payload"`
}

// wsSurface is an overlay surface whose repositioning and messages are
// broadcast as JSON events for the host page to apply.
type wsSurface struct {
	hub     *Hub
	id      string
	layerID string
	source  string
}

// NewSurface implements compositor.SurfaceFactory.
func (h *Hub) NewSurface(layerID, source string) (compositor.OverlaySurface, error) {
	s := &wsSurface{hub: h, id: uuid.NewString(), layerID: layerID, source: source}
	h.Broadcast(overlayCreateEvent{Type: "overlay_create", Surface: s.id, Layer: layerID, Source: source})
	return s, nil
}

// Reposition implements compositor.OverlaySurface.
func (s *wsSurface) Reposition(g compositor.Geometry) error {
	s.hub.Broadcast(overlayLayoutEvent{Type: "overlay_layout", Surface: s.id, Layer: s.layerID, Geometry: g})
	return nil
}

// Channel implements compositor.OverlaySurface.
func (s *wsSurface) Channel() compositor.MessageChannel {
	return s
}

// Send implements compositor.MessageChannel. Frame sync payloads keep their
// own wire type; anything else is wrapped in an overlay_message envelope.
func (s *wsSurface) Send(payload any) error {
	if fm, ok := payload.(compositor.FrameMessage); ok {
		s.hub.Broadcast(overlayFrame{FrameMessage: fm, Layer: s.layerID})
		return nil
	}
	s.hub.Broadcast(overlayMessage{Type: "overlay_message", Layer: s.layerID, Payload: payload})
	return nil
}

// Destroy implements compositor.OverlaySurface.
func (s *wsSurface) Destroy() error {
	s.hub.Broadcast(overlayDestroyEvent{Type: "overlay_destroy", Surface: s.id, Layer: s.layerID})
	return nil
}
