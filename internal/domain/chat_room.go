package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chat participant roles
const (
	ChatRoleAdmin  = "ADMIN"
	ChatRoleMember = "MEMBER"
)

// ChatRoom represents a direct or group conversation.
// Name is null for direct rooms; clients derive the display name from the
// counterpart. deleted_at is an explicit soft-delete marker: queries always
// filter it, rows are never removed.
type ChatRoom struct {
	ID          string     `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	Name        *string    `gorm:"column:name;size:255" json:"name,omitempty"`
	IsGroupChat bool       `gorm:"column:is_group_chat" json:"is_group_chat"`
	CreatedBy   string     `gorm:"column:created_by;type:char(36);index" json:"created_by"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt   *time.Time `gorm:"column:deleted_at;index" json:"-"`
}

// TableName returns the table name
func (ChatRoom) TableName() string {
	return "chat_rooms"
}

// BeforeCreate assigns the room id
func (r *ChatRoom) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// ChatParticipant is the (room, user) membership row. Uniqueness is enforced
// on the logical pair regardless of delete state: leaving soft-deletes the
// row and re-adding restores it instead of inserting a duplicate.
type ChatParticipant struct {
	ID            string     `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	ChatRoomID    string     `gorm:"column:chat_room_id;type:char(36);uniqueIndex:uq_chat_participant_per_room" json:"chat_room_id"`
	ParticipantID string     `gorm:"column:participant_id;type:char(36);uniqueIndex:uq_chat_participant_per_room" json:"participant_id"`
	InvitedBy     *string    `gorm:"column:invited_by;type:char(36)" json:"invited_by,omitempty"`
	ChatRole      string     `gorm:"column:chat_role;size:50" json:"chat_role"`
	JoinedAt      time.Time  `gorm:"column:joined_at" json:"joined_at"`
	LastReadAt    *time.Time `gorm:"column:last_read_at" json:"last_read_at,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt     *time.Time `gorm:"column:deleted_at" json:"-"`
}

// TableName returns the table name
func (ChatParticipant) TableName() string {
	return "chat_participants"
}

// BeforeCreate assigns the participant row id and join time
func (p *ChatParticipant) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now()
	}
	return nil
}

// IsActive reports whether the membership row is not soft-deleted
func (p *ChatParticipant) IsActive() bool {
	return p.DeletedAt == nil
}

// CreateDirectRoomRequest request body for creating a direct room
type CreateDirectRoomRequest struct {
	RecipientID string `json:"recipient_id" binding:"required,uuid"`
}

// CreateGroupRoomRequest request body for creating a group room
type CreateGroupRoomRequest struct {
	Name           string   `json:"name" binding:"required"`
	ParticipantIDs []string `json:"participant_ids" binding:"required,min=1,dive,uuid"`
}

// AddParticipantsRequest request body for adding members to a group room
type AddParticipantsRequest struct {
	ParticipantIDs []string `json:"participant_ids" binding:"required,min=1,dive,uuid"`
}

// AddParticipantsResponse ids actually added or restored
type AddParticipantsResponse struct {
	ChatRoomID   string   `json:"chat_room_id"`
	Participants []string `json:"participants"`
}

// LastMessageResponse summary of the newest message in a room listing
type LastMessageResponse struct {
	SenderID    string    `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	MessageType string    `json:"message_type"`
	Content     string    `json:"content"`
	SentAt      time.Time `json:"sent_at"`
}

// ChatRoomResponse a room as seen by one caller
type ChatRoomResponse struct {
	ID           string               `json:"id"`
	Name         *string              `json:"name,omitempty"`
	IsGroupChat  bool                 `json:"is_group_chat"`
	Participants []string             `json:"participants"`
	LastMessage  *LastMessageResponse `json:"last_message,omitempty"`
	UnreadCount  int64                `json:"unread_count"`
	CreatedAt    time.Time            `json:"created_at"`
}
