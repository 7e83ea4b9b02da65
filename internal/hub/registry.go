package hub

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/ashureev/juice-coach/internal/domain"
	"github.com/coder/websocket"
)

// DefaultClientID names connections that did not identify their tab.
const DefaultClientID = "default"

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

func sanitizeClientID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || !clientIDPattern.MatchString(id) {
		return DefaultClientID
	}
	return id
}

// client is one overlay connection and its outbox. The outbox holds only the
// newest pending state, so a slow tab skips intermediate states instead of
// queueing them.
type client struct {
	conn *websocket.Conn

	mu      sync.Mutex
	pending *domain.CoachingState
	wake    chan struct{}
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn, wake: make(chan struct{}, 1)}
}

// push replaces the pending state and wakes the writer. It never blocks.
func (c *client) push(state domain.CoachingState) {
	c.mu.Lock()
	c.pending = &state
	c.mu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// take removes and returns the pending state, nil when there is none.
func (c *client) take() *domain.CoachingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pending
	c.pending = nil
	return p
}

// Registry tracks one live connection per overlay tab.
type Registry struct {
	mu     sync.RWMutex
	active map[string]*client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{active: make(map[string]*client)}
}

// Get returns the client registered for clientID.
func (r *Registry) Get(clientID string) *client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active[clientID]
}

// Register stores c for clientID, closing any connection it replaces.
func (r *Registry) Register(clientID string, c *client) {
	r.mu.Lock()
	existing, exists := r.active[clientID]
	r.active[clientID] = c
	r.mu.Unlock()

	if exists && existing != c {
		_ = existing.conn.Close(websocket.StatusNormalClosure, "connection replaced")
	}
	slog.Info("Overlay connection registered", "client_id", clientID)
}

// Unregister removes c if it is still the one registered for clientID.
func (r *Registry) Unregister(clientID string, c *client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.active[clientID]; ok && current == c {
		delete(r.active, clientID)
		slog.Info("Overlay connection unregistered", "client_id", clientID)
	}
}

// Snapshot returns the registered clients keyed by client ID.
func (r *Registry) Snapshot() map[string]*client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*client, len(r.active))
	for k, v := range r.active {
		out[k] = v
	}
	return out
}

// CloseAll terminates every connection.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	clients := r.active
	r.active = make(map[string]*client)
	r.mu.Unlock()

	for id, c := range clients {
		_ = c.conn.Close(websocket.StatusGoingAway, "server shutting down")
		slog.Info("Overlay connection closed", "client_id", id)
	}
}

// Len is the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.active)
}
