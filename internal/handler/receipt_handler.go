package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/octguy/learniverse-chat/internal/common"
	"github.com/octguy/learniverse-chat/internal/domain"
	"github.com/octguy/learniverse-chat/internal/middleware"
	"github.com/octguy/learniverse-chat/internal/service"
)

// ReceiptHandler handles delivery and read receipt requests
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// MarkDelivered handles POST /api/v1/chat/messages/:messageID/delivered
// @Summary      Acknowledge delivery
// @Description  Optional best-effort delivery ack; clients may skip straight to read
// @Tags         chat-receipts
// @Produce      json
// @Security     BearerAuth
// @Param        messageID  path      string  true  "Message ID"
// @Success      200  {object}  common.APIResponse
// @Failure      401  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /chat/messages/{messageID}/delivered [post]
func (h *ReceiptHandler) MarkDelivered(c *gin.Context) {
	if err := h.receiptService.MarkDelivered(c.Param("messageID"), middleware.GetUserID(c)); err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"status": domain.ReceiptStatusDelivered}, nil)
}

// MarkRead handles POST /api/v1/chat/messages/:messageID/read
// @Summary      Mark one message read
// @Description  Idempotent; the read timestamp never moves after the first call
// @Tags         chat-receipts
// @Produce      json
// @Security     BearerAuth
// @Param        messageID  path      string  true  "Message ID"
// @Success      200  {object}  common.APIResponse
// @Failure      401  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /chat/messages/{messageID}/read [post]
func (h *ReceiptHandler) MarkRead(c *gin.Context) {
	if err := h.receiptService.MarkRead(c.Param("messageID"), middleware.GetUserID(c)); err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"status": domain.ReceiptStatusRead}, nil)
}

// MarkManyRead handles POST /api/v1/chat/messages/read
// @Summary      Mark a batch of messages read
// @Tags         chat-receipts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.MarkManyReadRequest  true  "Message ids"
// @Success      200  {object}  common.APIResponse
// @Failure      400  {object}  common.APIResponse
// @Failure      401  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /chat/messages/read [post]
func (h *ReceiptHandler) MarkManyRead(c *gin.Context) {
	var req domain.MarkManyReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.receiptService.MarkManyRead(middleware.GetUserID(c), req.MessageIDs); err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"marked": len(req.MessageIDs)}, nil)
}

// MarkAllRead handles POST /api/v1/chat/rooms/:roomID/read-all
// @Summary      Mark every unread message in a room read
// @Tags         chat-receipts
// @Produce      json
// @Security     BearerAuth
// @Param        roomID  path      string  true  "Room ID"
// @Success      200  {object}  common.APIResponse
// @Failure      401  {object}  common.APIResponse
// @Router       /chat/rooms/{roomID}/read-all [post]
func (h *ReceiptHandler) MarkAllRead(c *gin.Context) {
	if err := h.receiptService.MarkAllRead(c.Param("roomID"), middleware.GetUserID(c)); err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"room_id": c.Param("roomID")}, nil)
}

// UnreadCount handles GET /api/v1/chat/rooms/:roomID/unread-count
// @Summary      Unread message count
// @Tags         chat-receipts
// @Produce      json
// @Security     BearerAuth
// @Param        roomID  path      string  true  "Room ID"
// @Success      200  {object}  common.APIResponse{data=domain.UnreadResponse}
// @Failure      401  {object}  common.APIResponse
// @Router       /chat/rooms/{roomID}/unread-count [get]
func (h *ReceiptHandler) UnreadCount(c *gin.Context) {
	resp, err := h.receiptService.UnreadCount(c.Param("roomID"), middleware.GetUserID(c))
	if err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, resp, nil)
}

// UnreadMessages handles GET /api/v1/chat/rooms/:roomID/unread-messages
// @Summary      Unread message ids
// @Description  The identity list backing the unread count, for client reconciliation
// @Tags         chat-receipts
// @Produce      json
// @Security     BearerAuth
// @Param        roomID  path      string  true  "Room ID"
// @Success      200  {object}  common.APIResponse{data=domain.UnreadResponse}
// @Failure      401  {object}  common.APIResponse
// @Router       /chat/rooms/{roomID}/unread-messages [get]
func (h *ReceiptHandler) UnreadMessages(c *gin.Context) {
	resp, err := h.receiptService.UnreadMessages(c.Param("roomID"), middleware.GetUserID(c))
	if err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, resp, nil)
}

// ListReceipts handles GET /api/v1/chat/messages/:messageID/receipts
// @Summary      List receipts of one message
// @Tags         chat-receipts
// @Produce      json
// @Security     BearerAuth
// @Param        messageID  path      string  true  "Message ID"
// @Success      200  {object}  common.APIResponse{data=[]domain.ReceiptResponse}
// @Failure      401  {object}  common.APIResponse
// @Failure      404  {object}  common.APIResponse
// @Router       /chat/messages/{messageID}/receipts [get]
func (h *ReceiptHandler) ListReceipts(c *gin.Context) {
	resp, err := h.receiptService.ListReceipts(c.Param("messageID"), middleware.GetUserID(c))
	if err != nil {
		common.ErrorResponseFromErr(c, err)
		return
	}
	common.SuccessResponse(c, resp, nil)
}
