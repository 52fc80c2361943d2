package observer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/amanullahtanweer/meeting-summarizer/internal/transcript"
)

const wsWriteTimeout = 2 * time.Second

// WebSocketHub broadcasts live session events to connected websocket
// clients. It is an http.Handler; mount it wherever the feed should live.
type WebSocketHub struct {
	upgrader websocket.Upgrader

	mu        sync.Mutex
	clients   map[*wsClient]struct{}
	sessionID string
}

type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

type wsMessage struct {
	Type      string              `json:"type"`
	SessionID string              `json:"session_id"`
	Segment   *transcript.Segment `json:"segment,omitempty"`
	Outcome   *Outcome            `json:"outcome,omitempty"`
}

func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*wsClient]struct{}),
	}
}

func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &wsClient{conn: conn}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	slog.Debug("WebSocket client connected", "remote", r.RemoteAddr)

	// Clients only listen; reading just detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

// Clients returns the number of connected clients.
func (h *WebSocketHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *WebSocketHub) remove(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

func (h *WebSocketHub) broadcast(msg wsMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.Lock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.mu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		err := c.conn.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()
		if err != nil {
			slog.Debug("Dropping websocket client", "error", err)
			h.remove(c)
		}
	}
	return nil
}

func (h *WebSocketHub) Notify(seg transcript.Segment) error {
	h.mu.Lock()
	sessionID := h.sessionID
	h.mu.Unlock()
	return h.broadcast(wsMessage{Type: "segment", SessionID: sessionID, Segment: &seg})
}

func (h *WebSocketHub) SessionStarted(info Info) error {
	h.mu.Lock()
	h.sessionID = info.SessionID
	h.mu.Unlock()
	return h.broadcast(wsMessage{Type: "session_started", SessionID: info.SessionID})
}

func (h *WebSocketHub) SessionEnded(info Info, outcome Outcome) error {
	return h.broadcast(wsMessage{Type: "session_ended", SessionID: info.SessionID, Outcome: &outcome})
}

// ListenAndServe serves the hub at path on addr until ctx is done.
func (h *WebSocketHub) ListenAndServe(ctx context.Context, addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, h)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("WebSocket feed listening", "addr", addr, "path", path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
