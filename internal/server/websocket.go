package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/SmitUplenchwar2687/Pacer/internal/record"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Local monitoring tool.
	},
}

// BatchEvent is the message sent to WebSocket clients for every published batch.
type BatchEvent struct {
	Topic     string            `json:"topic"`
	Size      int               `json:"size"`
	From      string            `json:"from,omitempty"`
	Published time.Time         `json:"published"`
	Records   []json.RawMessage `json:"records"`
}

// Hub mirrors published batches to WebSocket clients. It implements
// sink.Sink so it can be combined with the real transport via sink.Multi.
type Hub struct {
	topic string
	log   logrus.FieldLogger

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool

	statsMu sync.Mutex
	batches int
	records int
	last    string
}

// NewHub creates a hub for topic.
func NewHub(topic string, log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		topic:   topic,
		log:     log,
		clients: make(map[*websocket.Conn]bool),
	}
}

// HandleWebSocket upgrades the HTTP connection and registers the client.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	// Read loop keeps the connection alive and notices disconnects.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// Publish implements sink.Sink. Slow or broken clients never fail a publish.
func (h *Hub) Publish(_ context.Context, batch []record.Encoded) error {
	event := BatchEvent{
		Topic:     h.topic,
		Size:      len(batch),
		Published: time.Now().UTC(),
		Records:   make([]json.RawMessage, len(batch)),
	}
	for i, rec := range batch {
		event.Records[i] = json.RawMessage(rec.Payload)
	}
	if len(batch) > 0 {
		event.From = batch[0].Timestamp
	}

	h.statsMu.Lock()
	h.batches++
	h.records += len(batch)
	if len(batch) > 0 {
		h.last = batch[len(batch)-1].Timestamp
	}
	h.statsMu.Unlock()

	h.Broadcast(&event)
	return nil
}

// Broadcast sends an event to all connected WebSocket clients.
func (h *Hub) Broadcast(event *BatchEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.WithError(err).Warn("websocket marshal failed")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.WithError(err).Debug("websocket write failed")
			conn.Close()
			// The read goroutine removes the client.
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns the number of batches and records seen and the timestamp
// of the most recent record.
func (h *Hub) Stats() (batches, records int, last string) {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()
	return h.batches, h.records, h.last
}
