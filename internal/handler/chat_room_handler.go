package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/octguy/learniverse-chat/internal/common"
	"github.com/octguy/learniverse-chat/internal/domain"
	"github.com/octguy/learniverse-chat/internal/middleware"
	"github.com/octguy/learniverse-chat/internal/service"
)

// ChatRoomHandler handles room and membership requests
type ChatRoomHandler struct {
	roomService        *service.ChatRoomService
	participantService *service.ParticipantService
}

// NewChatRoomHandler creates a new ChatRoomHandler
func NewChatRoomHandler(roomService *service.ChatRoomService, participantService *service.ParticipantService) *ChatRoomHandler {
	return &ChatRoomHandler{
		roomService:        roomService,
		participantService: participantService,
	}
}

// CreateDirectRoom handles POST /api/v1/chat/rooms/direct
// @Summary      Create or reopen a direct room
// @Description  Returns the direct room between the caller and the recipient, creating or restoring it as needed
// @Tags         chat-rooms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.CreateDirectRoomRequest  true  "Recipient"
// @Success      200  {object}  common.APIResponse{data=domain.ChatRoomResponse}
// @Failure      400  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /chat/rooms/direct [post]
func (h *ChatRoomHandler) CreateDirectRoom(c *gin.Context) {
	var req domain.CreateDirectRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp, err := h.roomService.CreateDirectRoom(middleware.GetUserID(c), req.RecipientID)
	if err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, resp, nil)
}

// CreateGroupRoom handles POST /api/v1/chat/rooms/group
// @Summary      Create a group room
// @Description  Creates a group room with the caller as ADMIN and every invitee as MEMBER
// @Tags         chat-rooms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.CreateGroupRoomRequest  true  "Name and invitees"
// @Success      200  {object}  common.APIResponse{data=domain.ChatRoomResponse}
// @Failure      400  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /chat/rooms/group [post]
func (h *ChatRoomHandler) CreateGroupRoom(c *gin.Context) {
	var req domain.CreateGroupRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp, err := h.roomService.CreateGroupRoom(middleware.GetUserID(c), &req)
	if err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, resp, nil)
}

// ListRooms handles GET /api/v1/chat/rooms
// @Summary      List my rooms
// @Description  Lists the caller's active rooms with last message and unread count, newest activity first
// @Tags         chat-rooms
// @Produce      json
// @Security     BearerAuth
// @Param        type  query     string  false  "Filter: direct or group"
// @Success      200  {object}  common.APIResponse{data=[]domain.ChatRoomResponse}
// @Failure      400  {object}  common.APIResponse
// @Router       /chat/rooms [get]
func (h *ChatRoomHandler) ListRooms(c *gin.Context) {
	resp, err := h.roomService.ListRooms(middleware.GetUserID(c), c.Query("type"))
	if err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, resp, nil)
}

// GetRoom handles GET /api/v1/chat/rooms/:roomID
// @Summary      Get one room
// @Tags         chat-rooms
// @Produce      json
// @Security     BearerAuth
// @Param        roomID  path      string  true  "Room ID"
// @Success      200  {object}  common.APIResponse{data=domain.ChatRoomResponse}
// @Failure      401  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /chat/rooms/{roomID} [get]
func (h *ChatRoomHandler) GetRoom(c *gin.Context) {
	resp, err := h.roomService.GetRoom(middleware.GetUserID(c), c.Param("roomID"))
	if err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, resp, nil)
}

// AddParticipants handles POST /api/v1/chat/rooms/:roomID/participants
// @Summary      Add members to a group room
// @Description  Restores previously-left members and inserts new ones; rejects currently-active targets
// @Tags         chat-rooms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        roomID   path      string                         true  "Room ID"
// @Param        request  body      domain.AddParticipantsRequest  true  "Target user ids"
// @Success      200  {object}  common.APIResponse{data=domain.AddParticipantsResponse}
// @Failure      400  {object}  common.APIResponse
// @Failure      401  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /chat/rooms/{roomID}/participants [post]
func (h *ChatRoomHandler) AddParticipants(c *gin.Context) {
	var req domain.AddParticipantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp, err := h.participantService.AddParticipants(c.Param("roomID"), middleware.GetUserID(c), &req)
	if err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, resp, nil)
}

// RemoveParticipant handles DELETE /api/v1/chat/rooms/:roomID/participants/:userID
// @Summary      Remove a member from a group room
// @Tags         chat-rooms
// @Produce      json
// @Security     BearerAuth
// @Param        roomID  path      string  true  "Room ID"
// @Param        userID  path      string  true  "Target user ID"
// @Success      200  {object}  common.APIResponse
// @Failure      400  {object}  common.APIResponse
// @Failure      401  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /chat/rooms/{roomID}/participants/{userID} [delete]
func (h *ChatRoomHandler) RemoveParticipant(c *gin.Context) {
	err := h.participantService.RemoveParticipant(c.Param("roomID"), middleware.GetUserID(c), c.Param("userID"))
	if err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"removed": c.Param("userID")}, nil)
}

// Leave handles POST /api/v1/chat/rooms/:roomID/leave
// @Summary      Leave a group room
// @Tags         chat-rooms
// @Produce      json
// @Security     BearerAuth
// @Param        roomID  path      string  true  "Room ID"
// @Success      200  {object}  common.APIResponse
// @Failure      400  {object}  common.APIResponse
// @Failure      401  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /chat/rooms/{roomID}/leave [post]
func (h *ChatRoomHandler) Leave(c *gin.Context) {
	if err := h.roomService.Leave(middleware.GetUserID(c), c.Param("roomID")); err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"left": c.Param("roomID")}, nil)
}
