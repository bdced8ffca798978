package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cecil-the-coder/ai-relay/pkg/backend/middleware"
	"github.com/cecil-the-coder/ai-relay/pkg/backendtypes"
	"github.com/cecil-the-coder/ai-relay/pkg/relay"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to receive the chat request after the upgrade.
	requestWait = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // CORS is open for the API as well
}

// WebSocketWriter writes relay events as WebSocket text frames carrying the
// same payloads as the SSE stream. Nothing is written after a terminal event.
type WebSocketWriter struct {
	conn  *websocket.Conn
	mu    sync.Mutex
	ended bool
}

// NewWebSocketWriter wraps an upgraded connection
func NewWebSocketWriter(conn *websocket.Conn) *WebSocketWriter {
	return &WebSocketWriter{conn: conn}
}

// WriteEvent writes one text frame with a per-frame write deadline
func (s *WebSocketWriter) WriteEvent(event relay.Event) error {
	payload, err := event.Payload()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return relay.ErrStreamEnded
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return err
	}
	s.ended = event.IsTerminal()
	return nil
}

// Close sends a normal closure frame
func (s *WebSocketWriter) Close(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
		time.Now().Add(writeWait))
}

// ChatWebSocket handles GET /api/chat/ws: the client sends one {"message": ...}
// object and receives the relayed events as text frames followed by a close.
func (h *ChatHandler) ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[%s] Failed to upgrade connection: %v", requestID, err)
		return
	}
	defer func() { _ = conn.Close() }()

	sink := NewWebSocketWriter(conn)

	_ = conn.SetReadDeadline(time.Now().Add(requestWait))
	_, message, err := conn.ReadMessage()
	if err != nil {
		log.Printf("[%s] chat websocket: no request received: %v", requestID, err)
		return
	}

	var req backendtypes.ChatRequest
	if err := json.Unmarshal(message, &req); err != nil || strings.TrimSpace(req.Message) == "" {
		_ = sink.WriteEvent(relay.Failure("No message provided"))
		_ = sink.Close("invalid request")
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	// Hijacked connections do not cancel the request context, so a read
	// failure (peer closed) cancels the stream instead.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[%s] chat websocket read error: %v", requestID, err)
				}
				return
			}
		}
	}()

	stats, err := h.relay.Stream(ctx, req.Message, sink)
	h.record(requestID, "chat websocket", stats, err)
	_ = sink.Close("")
}
