package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Receipt statuses
const (
	ReceiptStatusDelivered = "DELIVERED"
	ReceiptStatusRead      = "READ"
)

// MessageReceipt tracks per-(message, user) delivery state. At most one row
// exists per pair. ReadAt is written exactly once, on the first transition
// to READ; later READ writes must not touch it. The message author never
// gets a receipt row for their own message.
type MessageReceipt struct {
	ID        string     `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	MessageID string     `gorm:"column:message_id;type:char(36);uniqueIndex:uq_receipt_per_user" json:"message_id"`
	UserID    string     `gorm:"column:user_id;type:char(36);uniqueIndex:uq_receipt_per_user" json:"user_id"`
	Status    string     `gorm:"column:status;size:50" json:"status"`
	ReadAt    *time.Time `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName returns the table name
func (MessageReceipt) TableName() string {
	return "message_receipts"
}

// BeforeCreate assigns the receipt id and the read timestamp for rows
// created directly in READ state (clients that skip the delivery ack)
func (r *MessageReceipt) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == ReceiptStatusRead && r.ReadAt == nil {
		now := time.Now()
		r.ReadAt = &now
	}
	return nil
}

// MarkManyReadRequest request body for the batch read endpoint
type MarkManyReadRequest struct {
	MessageIDs []string `json:"message_ids" binding:"required,min=1,dive,uuid"`
}

// ReceiptResponse a receipt as returned to clients
type ReceiptResponse struct {
	MessageID string     `json:"message_id"`
	UserID    string     `json:"user_id"`
	Username  string     `json:"username,omitempty"`
	Status    string     `json:"status"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// UnreadResponse unread reconciliation payload for one room
type UnreadResponse struct {
	ChatRoomID string   `json:"chat_room_id"`
	Count      int64    `json:"count"`
	MessageIDs []string `json:"message_ids,omitempty"`
}
