package gateway

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/soyeahso/backoffice/internal/logging"
)

// topicFilter matches event names against exact names and ".*" prefixes.
// The zero value matches everything.
type topicFilter []string

func newTopicFilter(topics []string) topicFilter {
	f := make(topicFilter, 0, len(topics))
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			f = append(f, t)
		}
	}
	return f
}

func (f topicFilter) match(event string) bool {
	if len(f) == 0 {
		return true
	}
	return slices.ContainsFunc(f, func(t string) bool {
		prefix, wild := strings.CutSuffix(t, "*")
		return t == event || (wild && strings.HasPrefix(event, prefix))
	})
}

// writeTimeout bounds every frame write, so a client that stops reading
// cannot stall broadcasts running inside event dispatch.
var writeTimeout = 10 * time.Second

// Client is an authenticated /ws connection. Writes are serialized so the
// read loop and event broadcasts can share the socket.
type Client struct {
	ConnID      string
	Info        ClientInfo
	Socket      *websocket.Conn
	AuthResult  AuthResult
	ConnectedAt time.Time

	mu     sync.Mutex
	closed bool
	topics topicFilter
	log    *logging.Logger
}

// NewClient wraps an authenticated connection. The client receives every
// broadcast event until Subscribe narrows the feed.
func NewClient(conn *websocket.Conn, info ClientInfo, auth AuthResult, log *logging.Logger) *Client {
	return &Client{
		ConnID:      uuid.New().String(),
		Info:        info,
		Socket:      conn,
		AuthResult:  auth,
		ConnectedAt: time.Now(),
		log:         log,
	}
}

// Subscribe replaces the client's topics. An empty list restores the full
// feed.
func (c *Client) Subscribe(topics []string) {
	f := newTopicFilter(topics)
	c.mu.Lock()
	c.topics = f
	c.mu.Unlock()
}

// Wants reports whether the client subscribed to event.
func (c *Client) Wants(event string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topics.match(event)
}

// Send writes frame unless the client is closed. A write that fails or
// misses writeTimeout closes the client.
func (c *Client) Send(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	c.Socket.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.Socket.WriteJSON(frame); err != nil {
		c.closed = true
		c.Socket.Close()
		return err
	}
	return nil
}

func (c *Client) Respond(reqID string, payload any) error {
	f, err := NewResponse(reqID, payload)
	if err != nil {
		return err
	}
	return c.Send(f)
}

func (c *Client) RespondError(reqID string, shape ErrorShape) error {
	return c.Send(NewErrorResponse(reqID, shape))
}

// ReadFrame blocks for the next frame. Only the connection's read loop
// calls it.
func (c *Client) ReadFrame() (Frame, error) {
	var f Frame
	err := c.Socket.ReadJSON(&f)
	return f, err
}

// Close closes the socket once; later calls are no-ops.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.Socket.Close()
}

// ClientRegistry tracks connected clients by connection id.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *logging.Logger
}

func NewClientRegistry(log *logging.Logger) *ClientRegistry {
	return &ClientRegistry{clients: make(map[string]*Client), log: log}
}

func (r *ClientRegistry) Add(c *Client) {
	r.mu.Lock()
	r.clients[c.ConnID] = c
	r.mu.Unlock()
	r.log.Info().Str("connId", c.ConnID).Str("client", c.Info.ID).Msg("client connected")
}

// Remove forgets connID. Unknown ids are ignored.
func (r *ClientRegistry) Remove(connID string) {
	r.mu.Lock()
	_, known := r.clients[connID]
	delete(r.clients, connID)
	r.mu.Unlock()
	if known {
		r.log.Info().Str("connId", connID).Msg("client disconnected")
	}
}

func (r *ClientRegistry) Get(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[connID]
	return c, ok
}

func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *ClientRegistry) snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Collect(maps.Values(r.clients))
}

// Broadcast sends an event frame to every subscribed client and returns
// how many received it. The frame is encoded once.
func (r *ClientRegistry) Broadcast(event string, payload any, seq int64) int {
	f, err := NewEvent(event, payload, seq)
	if err != nil {
		r.log.Error().Err(err).Str("event", event).Msg("encoding broadcast event")
		return 0
	}

	sent := 0
	for _, c := range r.snapshot() {
		if !c.Wants(event) {
			continue
		}
		if err := c.Send(f); err != nil {
			r.log.Warn().Err(err).Str("connId", c.ConnID).Msg("broadcast send failed, dropping client")
			r.Remove(c.ConnID)
			continue
		}
		sent++
	}
	return sent
}

// CloseAll closes and forgets every client.
func (r *ClientRegistry) CloseAll() {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]*Client)
	r.mu.Unlock()
	for _, c := range clients {
		c.Close()
	}
}
