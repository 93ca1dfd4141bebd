package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"face-morph-bot/internal/models"
)

// VoteEvent is pushed to every connected operator when a vote changes a poll.
type VoteEvent struct {
	Type      string                `json:"type"`
	Key       string                `json:"key"`
	Option    models.Option         `json:"option"`
	VoterName string                `json:"voter_name"`
	Counts    map[models.Option]int `json:"counts"`
	Timestamp int64                 `json:"timestamp"`
}

// FeedHub manages the operator websocket connections for the live vote feed.
type FeedHub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
}

// NewFeedHub creates a new feed hub.
func NewFeedHub() *FeedHub {
	return &FeedHub{connections: make(map[string]*websocket.Conn)}
}

// Register adds a connection and returns its id.
func (h *FeedHub) Register(conn *websocket.Conn) string {
	id := uuid.New().String()

	h.mu.Lock()
	h.connections[id] = conn
	h.mu.Unlock()

	log.Info().Str("conn_id", id).Msg("Feed connection registered")
	return id
}

// Unregister closes and removes a connection.
func (h *FeedHub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, exists := h.connections[id]; exists {
		conn.Close()
		delete(h.connections, id)
		log.Info().Str("conn_id", id).Msg("Feed connection unregistered")
	}
}

// Broadcast fans a vote event out to every connection. Dead connections are
// dropped; delivery is best-effort.
func (h *FeedHub) Broadcast(event VoteEvent) {
	event.Type = "vote"
	event.Timestamp = time.Now().Unix()

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal vote event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.connections {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.connections, id)
			log.Debug().Str("conn_id", id).Err(err).Msg("Dropped feed connection")
		}
	}
}
