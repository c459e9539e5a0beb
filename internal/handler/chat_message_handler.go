package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/octguy/learniverse-chat/internal/common"
	"github.com/octguy/learniverse-chat/internal/domain"
	"github.com/octguy/learniverse-chat/internal/middleware"
	"github.com/octguy/learniverse-chat/internal/service"
)

// attachments are capped at 25 MiB before they reach object storage
const maxAttachmentSize = 25 << 20

// ChatMessageHandler handles message requests
type ChatMessageHandler struct {
	messageService *service.ChatMessageService
}

// NewChatMessageHandler creates a new ChatMessageHandler
func NewChatMessageHandler(messageService *service.ChatMessageService) *ChatMessageHandler {
	return &ChatMessageHandler{messageService: messageService}
}

// Send handles POST /api/v1/chat/rooms/:roomID/messages
// @Summary      Send a message
// @Description  Persists a message and broadcasts it to the room topic
// @Tags         chat-messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        roomID   path      string                     true  "Room ID"
// @Param        request  body      domain.SendMessageRequest  true  "Message"
// @Success      200  {object}  common.APIResponse{data=domain.MessageResponse}
// @Failure      400  {object}  common.APIResponse
// @Failure      401  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /chat/rooms/{roomID}/messages [post]
func (h *ChatMessageHandler) Send(c *gin.Context) {
	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp, err := h.messageService.Send(c.Param("roomID"), middleware.GetUserID(c), &req)
	if err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, resp, nil)
}

// SendAttachment handles POST /api/v1/chat/rooms/:roomID/messages/attachment
// @Summary      Send an attachment message
// @Description  Uploads the file to object storage and sends an IMAGE/VIDEO/FILE message carrying its URL
// @Tags         chat-messages
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        roomID        path      string  true   "Room ID"
// @Param        file          formData  file    true   "Attachment"
// @Param        message_type  formData  string  true   "IMAGE, VIDEO or FILE"
// @Param        caption       formData  string  false  "Optional caption"
// @Success      200  {object}  common.APIResponse{data=domain.MessageResponse}
// @Failure      400  {object}  common.APIResponse
// @Failure      401  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /chat/rooms/{roomID}/messages/attachment [post]
func (h *ChatMessageHandler) SendAttachment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Missing attachment file", err)
		return
	}
	if fileHeader.Size > maxAttachmentSize {
		common.ErrorResponse(c, http.StatusBadRequest, "Attachment too large", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Unreadable attachment", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to read attachment", err)
		return
	}

	resp, err := h.messageService.SendAttachment(
		c.Request.Context(),
		c.Param("roomID"),
		middleware.GetUserID(c),
		c.PostForm("message_type"),
		c.PostForm("caption"),
		data,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, resp, nil)
}

// List handles GET /api/v1/chat/rooms/:roomID/messages
// @Summary      List room history
// @Description  Cursor-paginated history, newest first; the cursor is the unix microsecond timestamp from the previous page
// @Tags         chat-messages
// @Produce      json
// @Security     BearerAuth
// @Param        roomID  path      string  true   "Room ID"
// @Param        cursor  query     int     false  "Unix microsecond timestamp"
// @Param        limit   query     int     false  "Page size (default 20, max 100)"
// @Success      200  {object}  common.APIResponse{data=[]domain.MessageResponse}
// @Failure      401  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /chat/rooms/{roomID}/messages [get]
func (h *ChatMessageHandler) List(c *gin.Context) {
	var cursor *int64
	if raw := c.Query("cursor"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			common.ErrorResponse(c, http.StatusBadRequest, "Invalid cursor", err)
			return
		}
		cursor = &parsed
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	page, err := h.messageService.List(c.Param("roomID"), middleware.GetUserID(c), cursor, limit)
	if err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, page.Data, &common.Meta{
		NextCursor: page.NextCursor,
		HasNext:    page.HasNext,
		Limit:      limit,
	})
}

// Get handles GET /api/v1/chat/messages/:messageID
// @Summary      Get one message
// @Tags         chat-messages
// @Produce      json
// @Security     BearerAuth
// @Param        messageID  path      string  true  "Message ID"
// @Success      200  {object}  common.APIResponse{data=domain.MessageResponse}
// @Failure      401  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /chat/messages/{messageID} [get]
func (h *ChatMessageHandler) Get(c *gin.Context) {
	resp, err := h.messageService.GetByID(c.Param("messageID"), middleware.GetUserID(c))
	if err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, resp, nil)
}

// Edit handles PATCH /api/v1/chat/messages/:messageID
// @Summary      Edit a text message
// @Description  Sender-only; edited status is derived from the updated timestamp
// @Tags         chat-messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        messageID  path      string                     true  "Message ID"
// @Param        request    body      domain.EditMessageRequest  true  "New text"
// @Success      200  {object}  common.APIResponse{data=domain.MessageResponse}
// @Failure      400  {object}  common.APIResponse
// @Failure      401  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /chat/messages/{messageID} [patch]
func (h *ChatMessageHandler) Edit(c *gin.Context) {
	var req domain.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp, err := h.messageService.Edit(c.Param("messageID"), middleware.GetUserID(c), req.TextContent)
	if err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, resp, nil)
}

// Delete handles DELETE /api/v1/chat/messages/:messageID
// @Summary      Delete a message
// @Description  Sender-only soft delete
// @Tags         chat-messages
// @Produce      json
// @Security     BearerAuth
// @Param        messageID  path      string  true  "Message ID"
// @Success      200  {object}  common.APIResponse
// @Failure      401  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /chat/messages/{messageID} [delete]
func (h *ChatMessageHandler) Delete(c *gin.Context) {
	if err := h.messageService.Delete(c.Param("messageID"), middleware.GetUserID(c)); err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"deleted": c.Param("messageID")}, nil)
}
