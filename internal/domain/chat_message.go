package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/octguy/learniverse-chat/internal/common"
)

// Message types
const (
	MessageTypeText  = "TEXT"
	MessageTypeImage = "IMAGE"
	MessageTypeVideo = "VIDEO"
	MessageTypeFile  = "FILE"
)

// ValidMessageType reports whether t is a known message type
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeFile:
		return true
	}
	return false
}

// ChatMessage is a single message in a room. Replies reference a parent
// message in the same room, one level deep. Seq is a monotonic insertion
// counter used only as the timestamp tie-break in pagination ordering.
type ChatMessage struct {
	ID              string     `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	Seq             int64      `gorm:"column:seq;autoIncrement;uniqueIndex" json:"-"`
	ChatRoomID      string     `gorm:"column:chat_room_id;type:char(36);index:idx_message_room_created" json:"chat_room_id"`
	SenderID        string     `gorm:"column:sender_id;type:char(36);index" json:"sender_id"`
	ParentMessageID *string    `gorm:"column:parent_message_id;type:char(36)" json:"parent_message_id,omitempty"`
	MessageType     string     `gorm:"column:message_type;size:50" json:"message_type"`
	TextContent     string     `gorm:"column:text_content;type:text" json:"text_content,omitempty"`
	Metadata        string     `gorm:"column:metadata;size:512" json:"metadata,omitempty"`
	CreatedAt       time.Time  `gorm:"column:created_at;index:idx_message_room_created" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt       *time.Time `gorm:"column:deleted_at" json:"-"`
}

// TableName returns the table name
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// BeforeCreate assigns the message id
func (m *ChatMessage) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// IsEdited reports whether the message was modified after creation
func (m *ChatMessage) IsEdited() bool {
	return !m.UpdatedAt.Equal(m.CreatedAt)
}

// ValidateContent enforces the type/content pairing: TEXT requires
// non-blank text, everything else requires a storage URL in metadata
func (m *ChatMessage) ValidateContent() error {
	if m.MessageType == MessageTypeText {
		if strings.TrimSpace(m.TextContent) == "" {
			return common.ErrBlankTextContent
		}
		return nil
	}
	if m.Metadata == "" {
		return common.ErrMissingMetadata
	}
	return nil
}

// SendMessageRequest request body for sending a text message
type SendMessageRequest struct {
	MessageType     string  `json:"message_type"`
	TextContent     string  `json:"text_content"`
	Metadata        string  `json:"metadata"`
	ParentMessageID *string `json:"parent_message_id" binding:"omitempty,uuid"`
}

// EditMessageRequest request body for editing a text message
type EditMessageRequest struct {
	TextContent string `json:"text_content" binding:"required"`
}

// SenderResponse message author summary
type SenderResponse struct {
	SenderID     string `json:"sender_id"`
	SenderName   string `json:"sender_name"`
	SenderAvatar string `json:"sender_avatar,omitempty"`
}

// MessageResponse a message as returned to clients
type MessageResponse struct {
	ID              string         `json:"id"`
	ChatRoomID      string         `json:"chat_room_id"`
	Sender          SenderResponse `json:"sender"`
	MessageType     string         `json:"message_type"`
	TextContent     string         `json:"text_content,omitempty"`
	Metadata        string         `json:"metadata,omitempty"`
	ParentMessageID *string        `json:"parent_message_id,omitempty"`
	IsEdited        bool           `json:"is_edited"`
	CreatedAt       time.Time      `json:"created_at"`
}

// MessagePage one page of a cursor-paginated room history, newest first
type MessagePage struct {
	Data       []MessageResponse `json:"data"`
	NextCursor *int64            `json:"next_cursor,omitempty"`
	HasNext    bool              `json:"has_next"`
}
