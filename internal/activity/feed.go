// Package activity provides audit trail capture and real-time fan-out of
// activity entries to connected WebSocket clients.
package activity

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/haneul-labs/complyhub/internal/models"
)

// Store defines the interface for activity persistence operations.
type Store interface {
	CreateActivity(ctx context.Context, activity *models.Activity) error
}

// Client represents a connected WebSocket client.
type Client struct {
	id     uuid.UUID
	orgID  uuid.UUID
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan *models.Activity
	feed   *Feed
	filter *ClientFilter
	mu     sync.Mutex
}

// ClientFilter holds the filter preferences for a connected client.
type ClientFilter struct {
	Types []models.ActivityType `json:"types,omitempty"`
}

// Matches checks if an activity matches the client's filter.
func (f *ClientFilter) Matches(activity *models.Activity) bool {
	if f == nil || len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == activity.Type {
			return true
		}
	}
	return false
}

// Config holds configuration for the Feed.
type Config struct {
	// PingInterval is how often to send ping messages to clients.
	PingInterval time.Duration
	// WriteTimeout is the timeout for writing to a client.
	WriteTimeout time.Duration
	// ReadTimeout is the timeout for reading from a client.
	ReadTimeout time.Duration
	// MaxMessageSize is the maximum size of a message from a client.
	MaxMessageSize int64
	// SendBufferSize is the size of the send buffer per client.
	SendBufferSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PingInterval:   30 * time.Second,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		MaxMessageSize: 512,
		SendBufferSize: 256,
	}
}

// Feed persists audit entries and broadcasts them to connected clients of
// the same organization.
type Feed struct {
	config   Config
	store    Store
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	clients    map[uuid.UUID]*Client
	clientsMu  sync.RWMutex
	orgClients map[uuid.UUID]map[uuid.UUID]*Client // orgID -> clientID -> client

	broadcast  chan *models.Activity
	register   chan *Client
	unregister chan *Client

	done chan struct{}
	wg   sync.WaitGroup
}

// NewFeed creates a Feed backed by the given store.
func NewFeed(config Config, store Store, logger zerolog.Logger) *Feed {
	return &Feed{
		config: config,
		store:  store,
		logger: logger.With().Str("component", "activity_feed").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The WS endpoint sits behind bearer auth.
				return true
			},
		},
		clients:    make(map[uuid.UUID]*Client),
		orgClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		broadcast:  make(chan *models.Activity, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Start begins processing events and client management.
func (f *Feed) Start() {
	f.wg.Add(1)
	go f.run()
	f.logger.Info().Msg("activity feed started")
}

// Stop stops the feed and closes all client connections.
func (f *Feed) Stop() {
	close(f.done)
	f.wg.Wait()
	f.logger.Info().Msg("activity feed stopped")
}

func (f *Feed) run() {
	defer f.wg.Done()

	for {
		select {
		case <-f.done:
			f.closeAllClients()
			return

		case client := <-f.register:
			f.addClient(client)

		case client := <-f.unregister:
			f.removeClient(client)

		case activity := <-f.broadcast:
			f.broadcastActivity(activity)
		}
	}
}

func (f *Feed) addClient(client *Client) {
	f.clientsMu.Lock()
	defer f.clientsMu.Unlock()

	f.clients[client.id] = client

	if _, ok := f.orgClients[client.orgID]; !ok {
		f.orgClients[client.orgID] = make(map[uuid.UUID]*Client)
	}
	f.orgClients[client.orgID][client.id] = client

	f.logger.Debug().
		Str("client_id", client.id.String()).
		Str("org_id", client.orgID.String()).
		Str("user_id", client.userID.String()).
		Msg("client connected")
}

func (f *Feed) removeClient(client *Client) {
	f.clientsMu.Lock()
	defer f.clientsMu.Unlock()

	if _, ok := f.clients[client.id]; !ok {
		return
	}

	delete(f.clients, client.id)

	if orgClients, ok := f.orgClients[client.orgID]; ok {
		delete(orgClients, client.id)
		if len(orgClients) == 0 {
			delete(f.orgClients, client.orgID)
		}
	}

	close(client.send)

	f.logger.Debug().
		Str("client_id", client.id.String()).
		Str("org_id", client.orgID.String()).
		Msg("client disconnected")
}

func (f *Feed) closeAllClients() {
	f.clientsMu.Lock()
	defer f.clientsMu.Unlock()

	for _, client := range f.clients {
		close(client.send)
	}
	f.clients = make(map[uuid.UUID]*Client)
	f.orgClients = make(map[uuid.UUID]map[uuid.UUID]*Client)
}

// broadcastActivity sends an activity to all clients in the same organization.
func (f *Feed) broadcastActivity(activity *models.Activity) {
	f.clientsMu.RLock()
	orgClients := f.orgClients[activity.OrgID]
	f.clientsMu.RUnlock()

	for _, client := range orgClients {
		if client.filter.Matches(activity) {
			select {
			case client.send <- activity:
			default:
				f.logger.Warn().
					Str("client_id", client.id.String()).
					Msg("client send buffer full, dropping activity")
			}
		}
	}
}

// Record persists an audit entry and broadcasts it to connected clients of
// the same organization. Only persistence errors are returned; a full
// broadcast buffer never fails the mutation that produced the entry.
func (f *Feed) Record(ctx context.Context, activity *models.Activity) error {
	if f.store != nil {
		if err := f.store.CreateActivity(ctx, activity); err != nil {
			f.logger.Error().Err(err).
				Str("activity_type", string(activity.Type)).
				Msg("failed to persist activity")
			return err
		}
	}

	select {
	case f.broadcast <- activity:
	default:
		f.logger.Warn().Msg("broadcast buffer full, dropping activity")
	}

	return nil
}

// HandleWebSocket handles a WebSocket connection upgrade and client management.
func (f *Feed) HandleWebSocket(w http.ResponseWriter, r *http.Request, orgID, userID uuid.UUID) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to upgrade websocket connection")
		return
	}

	client := &Client{
		id:     uuid.New(),
		orgID:  orgID,
		userID: userID,
		conn:   conn,
		send:   make(chan *models.Activity, f.config.SendBufferSize),
		feed:   f,
		filter: &ClientFilter{},
	}

	f.register <- client

	go client.writePump()
	go client.readPump()
}

// ClientCount returns the number of connected clients for an organization.
func (f *Feed) ClientCount(orgID uuid.UUID) int {
	f.clientsMu.RLock()
	defer f.clientsMu.RUnlock()

	if orgClients, ok := f.orgClients[orgID]; ok {
		return len(orgClients)
	}
	return 0
}

// readPump reads messages from the client. The only messages clients send
// are filter updates.
func (c *Client) readPump() {
	defer func() {
		c.feed.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.feed.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.feed.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.feed.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.feed.logger.Debug().Err(err).Msg("websocket read error")
			}
			break
		}

		var filterUpdate struct {
			Type   string       `json:"type"`
			Filter ClientFilter `json:"filter"`
		}
		if err := json.Unmarshal(message, &filterUpdate); err == nil && filterUpdate.Type == "filter" {
			c.mu.Lock()
			c.filter = &filterUpdate.Filter
			c.mu.Unlock()
		}
	}
}

// writePump writes messages to the client.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.feed.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case activity, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.feed.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			data, _ := json.Marshal(activity)
			w.Write(data)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.feed.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
