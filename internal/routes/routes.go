package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/octguy/learniverse-chat/internal/handler"
	"github.com/octguy/learniverse-chat/internal/middleware"
	"github.com/octguy/learniverse-chat/pkg/jwt"
)

// Setup configures all API routes
func Setup(
	router *gin.Engine,
	roomHandler *handler.ChatRoomHandler,
	messageHandler *handler.ChatMessageHandler,
	receiptHandler *handler.ReceiptHandler,
	presenceHandler *handler.PresenceHandler,
	wsHandler *handler.WSHandler,
	jwtManager *jwt.Manager,
) {
	chat := router.Group("/api/v1/chat", middleware.JWTAuth(jwtManager))

	rooms := chat.Group("/rooms")
	{
		rooms.POST("/direct", roomHandler.CreateDirectRoom)
		rooms.POST("/group", roomHandler.CreateGroupRoom)
		rooms.GET("", roomHandler.ListRooms)
		rooms.GET("/:roomID", roomHandler.GetRoom)
		rooms.POST("/:roomID/participants", roomHandler.AddParticipants)
		rooms.DELETE("/:roomID/participants/:userID", roomHandler.RemoveParticipant)
		rooms.POST("/:roomID/leave", roomHandler.Leave)

		rooms.POST("/:roomID/messages", messageHandler.Send)
		rooms.POST("/:roomID/messages/attachment", messageHandler.SendAttachment)
		rooms.GET("/:roomID/messages", messageHandler.List)

		rooms.POST("/:roomID/read-all", receiptHandler.MarkAllRead)
		rooms.GET("/:roomID/unread-count", receiptHandler.UnreadCount)
		rooms.GET("/:roomID/unread-messages", receiptHandler.UnreadMessages)

		rooms.POST("/:roomID/typing", presenceHandler.SetTyping)
	}

	messages := chat.Group("/messages")
	{
		messages.POST("/read", receiptHandler.MarkManyRead)
		messages.GET("/:messageID", messageHandler.Get)
		messages.PATCH("/:messageID", messageHandler.Edit)
		messages.DELETE("/:messageID", messageHandler.Delete)
		messages.POST("/:messageID/delivered", receiptHandler.MarkDelivered)
		messages.POST("/:messageID/read", receiptHandler.MarkRead)
		messages.GET("/:messageID/receipts", receiptHandler.ListReceipts)
	}

	presence := chat.Group("/presence")
	{
		presence.POST("/online", presenceHandler.SetOnline)
		presence.POST("/offline", presenceHandler.SetOffline)
		presence.GET("/:userID", presenceHandler.GetStatus)
	}

	// The upgrade itself is open; identity is resolved when present and
	// privileged frames fail closed without it
	router.GET("/ws/chat", middleware.OptionalJWTAuth(jwtManager), wsHandler.Connect)
}
