// Package websocket relays scrape progress and exported cause-list
// records to browser clients. Clients register under the identity
// carried by their "id" cookie; results of a scrape are delivered only
// to the sockets of the client that requested it, while job status
// updates are broadcast to everyone.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"causelist/internal/infrastructure"
	"causelist/pkg/contracts/domain"
	"causelist/pkg/contracts/events"
)

// directedMessage is a payload addressed to all sockets registered
// under one client key.
type directedMessage struct {
	key     string
	payload []byte
}

// Hub maintains the set of active clients, broadcasts messages, and
// routes directed messages to the sockets of a single client key.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Clients grouped by identity cookie value
	byKey map[string]map[*Client]bool

	// Outbound messages for all clients
	broadcast chan []byte

	// Outbound messages for one client key
	directed chan directedMessage

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	// Metrics
	totalConnections int64
	messagesSent     int64
	droppedMessages  int64

	quit    chan struct{}
	running bool
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "websocket.hub"))

	return &Hub{
		clients:    make(map[*Client]bool),
		byKey:      make(map[string]map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		directed:   make(chan directedMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		quit:       make(chan struct{}),
	}
}

// Start starts the hub's main loop
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run processes register, unregister, broadcast and directed events
// until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.deliverAll(message)

		case msg := <-h.directed:
			h.deliverToKey(msg.key, msg.payload)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	if client.key != "" {
		if h.byKey[client.key] == nil {
			h.byKey[client.key] = make(map[*Client]bool)
		}
		h.byKey[client.key][client] = true
	}
	count := len(h.clients)
	h.totalConnections++
	h.mu.Unlock()

	ctx := context.Background()
	if client.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, client.traceID)
	}

	h.logger.InfoContext(ctx, "client registered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("client_key", client.key),
		slog.String("remote_addr", client.remoteAddr))

	GetMetrics().RecordConnection()
	if om := GetOTelMetrics(); om != nil {
		om.RecordConnection(ctx)
	}

	env := events.Envelope{
		Type:      events.MessageTypeConnect,
		Timestamp: time.Now(),
		TraceID:   client.traceID,
		Data: map[string]interface{}{
			"status":    "connected",
			"client_id": client.id,
		},
	}
	if payload, err := json.Marshal(env); err == nil {
		select {
		case client.send <- payload:
		default:
			h.logger.WarnContext(ctx, "connect message dropped, client buffer full",
				slog.String("client_id", client.id))
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	if client.key != "" {
		if peers := h.byKey[client.key]; peers != nil {
			delete(peers, client)
			if len(peers) == 0 {
				delete(h.byKey, client.key)
			}
		}
	}
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	ctx := context.Background()
	if client.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, client.traceID)
	}

	h.logger.InfoContext(ctx, "client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))

	GetMetrics().RecordDisconnection(time.Since(client.connectedAt))
	if om := GetOTelMetrics(); om != nil {
		om.RecordDisconnection(ctx, time.Since(client.connectedAt))
	}
}

func (h *Hub) deliverAll(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.send(client, message)
	}
}

func (h *Hub) deliverToKey(key string, message []byte) {
	h.mu.RLock()
	peers := make([]*Client, 0, len(h.byKey[key]))
	for client := range h.byKey[key] {
		peers = append(peers, client)
	}
	h.mu.RUnlock()

	if len(peers) == 0 {
		h.logger.Warn("no connected socket for client key, message dropped",
			slog.String("client_key", key),
			slog.Int("message_size", len(message)))
		h.mu.Lock()
		h.droppedMessages++
		h.mu.Unlock()
		GetMetrics().RecordDroppedMessage()
		return
	}

	for _, client := range peers {
		h.send(client, message)
	}
}

// send delivers one frame to one client, disconnecting it when its
// buffer is full.
func (h *Hub) send(client *Client, message []byte) {
	select {
	case client.send <- message:
		h.mu.Lock()
		h.messagesSent++
		h.mu.Unlock()
	default:
		h.logger.Warn("client send buffer full, disconnecting",
			slog.String("client_id", client.id))
		h.removeClient(client)
	}
}

// SendRecord delivers one exported record to the sockets of the
// requesting client.
func (h *Hub) SendRecord(key, traceID string, record domain.Record) {
	h.sendEnvelope(key, events.Envelope{
		Type:      events.MessageTypeRecord,
		Timestamp: time.Now(),
		TraceID:   traceID,
		Data:      events.FromRecord(record),
	})
}

// SendProgress delivers a progress update to the requesting client.
func (h *Hub) SendProgress(key, traceID string, progress events.Progress) {
	h.sendEnvelope(key, events.Envelope{
		Type:      events.MessageTypeProgress,
		Timestamp: time.Now(),
		TraceID:   traceID,
		Data:      progress,
	})
}

// SendError delivers a job failure to the requesting client.
func (h *Hub) SendError(key, traceID string, payload events.ErrorPayload) {
	h.sendEnvelope(key, events.Envelope{
		Type:      events.MessageTypeError,
		Timestamp: time.Now(),
		TraceID:   traceID,
		Data:      payload,
	})
}

// BroadcastStatus announces a job transition to every connected client.
func (h *Hub) BroadcastStatus(traceID string, status events.JobStatus) {
	env := events.Envelope{
		Type:      events.MessageTypeJobStatus,
		Timestamp: time.Now(),
		TraceID:   traceID,
		Data:      status,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("error marshaling status message", slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- payload:
	case <-h.quit:
	}
}

func (h *Hub) sendEnvelope(key string, env events.Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", string(env.Type)))
		return
	}
	select {
	case h.directed <- directedMessage{key: key, payload: payload}:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HasClient reports whether any socket is registered under the key.
func (h *Hub) HasClient(key string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byKey[key]) > 0
}

// Register adds a client to the hub. Delivery gives up once the hub
// has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client from the hub. Nothing drains the
// channel after Stop, so delivery gives up on quit.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Stop gracefully stops the hub
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.byKey = make(map[string]map[*Client]bool)
}

// Stats returns current hub counters for the health endpoint.
func (h *Hub) Stats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"client_keys":       len(h.byKey),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"dropped_messages":  h.droppedMessages,
	}
}
