package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/octguy/learniverse-chat/internal/domain"
)

// MessageWithSender a message row joined with its sender's profile fields
type MessageWithSender struct {
	domain.ChatMessage
	SenderName   string
	SenderAvatar string
}

// ChatMessageRepository message data access
type ChatMessageRepository interface {
	Create(msg *domain.ChatMessage) error
	// FindByID returns the active message or nil
	FindByID(id string) (*domain.ChatMessage, error)
	// ListBefore returns up to limit active messages of the room strictly
	// older than before (or the newest when before is nil), newest first.
	// Ties within one timestamp are broken by insertion order (seq).
	ListBefore(roomID string, before *time.Time, limit int) ([]MessageWithSender, error)
	// ExistsBefore reports whether any active message of the room is
	// strictly older than t. This existence probe decides has_next: it is
	// stable under concurrent inserts, unlike an off-by-one page count.
	ExistsBefore(roomID string, t time.Time) (bool, error)
	FindLastMessage(roomID string) (*MessageWithSender, error)
	UpdateText(id, text string) error
	SoftDelete(id string) error
}

type chatMessageRepository struct {
	db *gorm.DB
}

// NewChatMessageRepository creates a new ChatMessageRepository
func NewChatMessageRepository(db *gorm.DB) ChatMessageRepository {
	return &chatMessageRepository{db: db}
}

// Create persists a message and moves the room's activity timestamp, in
// one transaction. Room listings order by that timestamp.
func (r *chatMessageRepository) Create(msg *domain.ChatMessage) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&domain.ChatRoom{}).
			Where("id = ?", msg.ChatRoomID).
			Update("updated_at", msg.CreatedAt).Error
	})
}

// FindByID returns the active message or nil
func (r *chatMessageRepository) FindByID(id string) (*domain.ChatMessage, error) {
	var msg domain.ChatMessage
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// ListBefore fetches one history page, newest first
func (r *chatMessageRepository) ListBefore(roomID string, before *time.Time, limit int) ([]MessageWithSender, error) {
	q := r.db.Model(&domain.ChatMessage{}).
		Select("chat_messages.*, u.display_name AS sender_name, u.avatar_url AS sender_avatar").
		Joins("LEFT JOIN users u ON u.id = chat_messages.sender_id").
		Where("chat_messages.chat_room_id = ? AND chat_messages.deleted_at IS NULL", roomID)

	if before != nil {
		q = q.Where("chat_messages.created_at < ?", *before)
	}

	var rows []MessageWithSender
	err := q.Order("chat_messages.created_at DESC, chat_messages.seq DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ExistsBefore probes for any older active message
func (r *chatMessageRepository) ExistsBefore(roomID string, t time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&domain.ChatMessage{}).
		Where("chat_room_id = ? AND deleted_at IS NULL AND created_at < ?", roomID, t).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// FindLastMessage returns the newest active message of the room or nil
func (r *chatMessageRepository) FindLastMessage(roomID string) (*MessageWithSender, error) {
	var rows []MessageWithSender
	err := r.db.Model(&domain.ChatMessage{}).
		Select("chat_messages.*, u.display_name AS sender_name, u.avatar_url AS sender_avatar").
		Joins("LEFT JOIN users u ON u.id = chat_messages.sender_id").
		Where("chat_messages.chat_room_id = ? AND chat_messages.deleted_at IS NULL", roomID).
		Order("chat_messages.created_at DESC, chat_messages.seq DESC").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// UpdateText edits a text message; updated_at moves so edited status is
// derivable from created_at != updated_at
func (r *chatMessageRepository) UpdateText(id, text string) error {
	return r.db.Model(&domain.ChatMessage{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"text_content": text,
			"updated_at":   time.Now(),
		}).Error
}

// SoftDelete marks a message deleted
func (r *chatMessageRepository) SoftDelete(id string) error {
	return r.db.Model(&domain.ChatMessage{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now()).Error
}
