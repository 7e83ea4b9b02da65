// Package hub pushes coaching state to connected overlays over WebSocket and
// accepts the overlay's signal that the host application wiped its progress.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/juice-coach/internal/domain"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const writeTimeout = 5 * time.Second

// Message types on the wire.
const (
	TypeState         = "state"
	TypeExternalReset = "external_reset"
	TypePing          = "ping"
	TypePong          = "pong"
	TypeError         = "error"
)

// Session is the part of the coaching session the hub needs.
type Session interface {
	State() domain.CoachingState
	ResetOnExternalSignal(ctx context.Context)
}

// Message is a frame exchanged with overlays.
type Message struct {
	Type  string                `json:"type"`
	State *domain.CoachingState `json:"state,omitempty"`
	Error string                `json:"error,omitempty"`
}

// Hub is an http.Handler serving overlay connections.
type Hub struct {
	session        Session
	registry       *Registry
	originPatterns []string
	logger         *slog.Logger
}

// New creates a hub. originPatterns are passed to websocket.Accept; nil
// allows any origin.
func New(session Session, originPatterns []string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if len(originPatterns) == 0 {
		originPatterns = []string{"*"}
	}
	return &Hub{
		session:        session,
		registry:       NewRegistry(),
		originPatterns: originPatterns,
		logger:         logger,
	}
}

// Registry exposes the connection registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// ServeHTTP upgrades the request and serves one overlay until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientID := sanitizeClientID(r.URL.Query().Get("client_id"))

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Error("Failed to accept WebSocket", "error", err, "client_id", clientID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			h.logger.Debug("Failed to close websocket", "error", closeErr, "client_id", clientID)
		}
	}()

	c := newClient(ws)
	h.registry.Register(clientID, c)
	defer h.registry.Unregister(clientID, c)

	ctx, cancel := context.WithCancel(r.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(ctx, c, clientID)
	}()
	defer func() {
		cancel()
		<-done
	}()

	c.push(h.session.State())

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return
			}
			h.logger.Debug("WebSocket read ended", "error", err, "client_id", clientID)
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := h.write(ctx, ws, Message{Type: TypeError, Error: "malformed message"}); err != nil {
				return
			}
			continue
		}
		h.handle(ctx, ws, clientID, msg)
	}
}

func (h *Hub) handle(ctx context.Context, ws *websocket.Conn, clientID string, msg Message) {
	switch msg.Type {
	case TypeExternalReset:
		h.logger.Info("External reset signal received", "client_id", clientID)
		h.session.ResetOnExternalSignal(ctx)
	case TypePing:
		if err := h.write(ctx, ws, Message{Type: TypePong}); err != nil {
			h.logger.Debug("Failed to send pong", "error", err, "client_id", clientID)
		}
	default:
		if err := h.write(ctx, ws, Message{Type: TypeError, Error: "unknown message type"}); err != nil {
			h.logger.Debug("Failed to send error", "error", err, "client_id", clientID)
		}
	}
}

// StateChanged queues state for every connected overlay. It does not wait
// for any socket write.
func (h *Hub) StateChanged(state domain.CoachingState) {
	for _, c := range h.registry.Snapshot() {
		c.push(state.Clone())
	}
}

// writeLoop sends queued states to one overlay until ctx is done or a write
// fails.
func (h *Hub) writeLoop(ctx context.Context, c *client, clientID string) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
			state := c.take()
			if state == nil {
				continue
			}
			if err := h.write(ctx, c.conn, Message{Type: TypeState, State: state}); err != nil {
				h.logger.Debug("Failed to send state", "error", err, "client_id", clientID)
				return
			}
		}
	}
}

// Close disconnects every overlay.
func (h *Hub) Close() {
	h.registry.CloseAll()
}

func (h *Hub) write(ctx context.Context, ws *websocket.Conn, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, ws, msg)
}
