package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/octguy/learniverse-chat/internal/common"
	"github.com/octguy/learniverse-chat/internal/middleware"
	"github.com/octguy/learniverse-chat/internal/service"
)

// TypingRequest request body for the typing indicator endpoint
type TypingRequest struct {
	IsTyping bool `json:"is_typing"`
}

// PresenceHandler handles online/offline/typing requests
type PresenceHandler struct {
	presenceService service.PresenceService
	gateService     *service.GateService
}

// NewPresenceHandler creates a new PresenceHandler
func NewPresenceHandler(presenceService service.PresenceService, gateService *service.GateService) *PresenceHandler {
	return &PresenceHandler{
		presenceService: presenceService,
		gateService:     gateService,
	}
}

// SetOnline handles POST /api/v1/chat/presence/online
// @Summary      Go online
// @Description  Marks the caller online for one TTL window; clients renew via heartbeat or by calling again
// @Tags         chat-presence
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.APIResponse
// @Router       /chat/presence/online [post]
func (h *PresenceHandler) SetOnline(c *gin.Context) {
	h.presenceService.SetOnline(c.Request.Context(), middleware.GetUserID(c), middleware.GetUsername(c))
	common.SuccessResponse(c, gin.H{"online": true}, nil)
}

// SetOffline handles POST /api/v1/chat/presence/offline
// @Summary      Go offline
// @Description  Clears the online key and persists last seen
// @Tags         chat-presence
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  common.APIResponse
// @Router       /chat/presence/offline [post]
func (h *PresenceHandler) SetOffline(c *gin.Context) {
	h.presenceService.SetOffline(c.Request.Context(), middleware.GetUserID(c), middleware.GetUsername(c))
	common.SuccessResponse(c, gin.H{"online": false}, nil)
}

// SetTyping handles POST /api/v1/chat/rooms/:roomID/typing
// @Summary      Set the typing indicator
// @Description  Short-lived; a crashed client's indicator expires on its own
// @Tags         chat-presence
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        roomID   path      string         true  "Room ID"
// @Param        request  body      TypingRequest  true  "Typing state"
// @Success      200  {object}  common.APIResponse
// @Failure      401  {object}  common.APIResponse
// @Router       /chat/rooms/{roomID}/typing [post]
func (h *PresenceHandler) SetTyping(c *gin.Context) {
	var req TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	err := h.gateService.Typing(
		c.Request.Context(),
		c.Param("roomID"),
		middleware.GetUserID(c),
		middleware.GetUsername(c),
		req.IsTyping,
	)
	if err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"is_typing": req.IsTyping}, nil)
}

// GetStatus handles GET /api/v1/chat/presence/:userID
// @Summary      Get a user's presence
// @Tags         chat-presence
// @Produce      json
// @Security     BearerAuth
// @Param        userID  path      string  true  "User ID"
// @Success      200  {object}  common.APIResponse{data=domain.UserStatusResponse}
// @Failure      404  {object}  common.APIResponse
// @Router       /chat/presence/{userID} [get]
func (h *PresenceHandler) GetStatus(c *gin.Context) {
	status, err := h.presenceService.GetStatus(c.Request.Context(), c.Param("userID"))
	if err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, status, nil)
}
