package domain

import (
	"fmt"
	"time"
)

// Socket event types
const (
	EventMessageNew     = "message.new"
	EventMessageEdited  = "message.edited"
	EventMessageDeleted = "message.deleted"
	EventReceipt        = "receipt"
	EventTyping         = "typing"
	EventPresence       = "presence"
)

// SocketEvent is the envelope for every event pushed over a topic
type SocketEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// RoomTopic is the message event topic for a room
func RoomTopic(roomID string) string {
	return fmt.Sprintf("room:%s", roomID)
}

// RoomTypingTopic is the typing indicator topic for a room
func RoomTypingTopic(roomID string) string {
	return fmt.Sprintf("room:%s:typing", roomID)
}

// RoomReceiptsTopic is the read/delivery receipt topic for a room
func RoomReceiptsTopic(roomID string) string {
	return fmt.Sprintf("room:%s:receipts", roomID)
}

// UserPresenceTopic is the presence topic for a user
func UserPresenceTopic(userID string) string {
	return fmt.Sprintf("user:%s:presence", userID)
}

// ReceiptEvent receipt state change payload, one per (user, room) batch
type ReceiptEvent struct {
	ChatRoomID string     `json:"chat_room_id"`
	UserID     string     `json:"user_id"`
	Status     string     `json:"status"`
	MessageIDs []string   `json:"message_ids"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
}

// TypingEvent typing indicator payload
type TypingEvent struct {
	ChatRoomID string `json:"chat_room_id"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	IsTyping   bool   `json:"is_typing"`
}

// PresenceEvent online/offline transition payload
type PresenceEvent struct {
	UserID     string     `json:"user_id"`
	Username   string     `json:"username"`
	IsOnline   bool       `json:"is_online"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// MessageDeletedEvent payload for a deleted message
type MessageDeletedEvent struct {
	ChatRoomID string `json:"chat_room_id"`
	MessageID  string `json:"message_id"`
}
