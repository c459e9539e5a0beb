package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/octguy/learniverse-chat/internal/middleware"
	"github.com/octguy/learniverse-chat/internal/service"
	"github.com/octguy/learniverse-chat/internal/ws"
)

// WSHandler handles WebSocket connections
type WSHandler struct {
	hub             *ws.Hub
	presenceService service.PresenceService
	allowedOrigins  []string
	upgrader        websocket.Upgrader
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *ws.Hub, presenceService service.PresenceService, allowedOrigins string) *WSHandler {
	h := &WSHandler{
		hub:             hub,
		presenceService: presenceService,
		allowedOrigins:  parseOrigins(allowedOrigins),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// parseOrigins parses comma-separated origins string
func parseOrigins(origins string) []string {
	if origins == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// checkOrigin validates the request origin against allowed origins
func (h *WSHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // Same-origin requests don't have Origin header
	}

	// If no allowed origins configured, allow all (development mode)
	if len(h.allowedOrigins) == 0 {
		return true
	}

	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}

	return false
}

// Connect handles the WebSocket upgrade at GET /ws/chat.
// Identity is exchanged once at connect time, from the Authorization
// header or the token query param. A failed exchange still accepts the
// connection; every privileged frame then fails closed.
// @Summary      Chat event stream
// @Description  Topic-based WebSocket: subscribe to room, receipt and presence topics; send typing and heartbeat frames
// @Tags         chat-ws
// @Router       /ws/chat [get]
func (h *WSHandler) Connect(c *gin.Context) {
	userID := middleware.GetUserID(c)
	username := middleware.GetUsername(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	middleware.WSConnectionOpened()
	if userID != "" {
		h.presenceService.SetOnline(context.Background(), userID, username)
	}

	client := ws.NewClient(h.hub, conn, userID)
	h.hub.Register(client)

	go client.WritePump()
	go func() {
		client.ReadPump()
		middleware.WSConnectionClosed()
		if userID != "" {
			h.presenceService.SetOffline(context.Background(), userID, username)
		}
	}()
}
