package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"face-morph-bot/internal/middleware"
	"face-morph-bot/internal/services"
)

// FeedHandler upgrades operator connections onto the live vote feed.
type FeedHandler struct {
	hub      *services.FeedHub
	secret   string
	upgrader websocket.Upgrader
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(hub *services.FeedHub, secret string) *FeedHandler {
	return &FeedHandler{
		hub:    hub,
		secret: secret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleFeed handles GET /ws?token=...
func (h *FeedHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if err := middleware.ValidateToken(token, h.secret); err != nil {
		respondError(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade feed connection")
		return
	}

	id := h.hub.Register(conn)

	// Drain the connection; we only push, but reads surface disconnects.
	go func() {
		defer h.hub.Unregister(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
