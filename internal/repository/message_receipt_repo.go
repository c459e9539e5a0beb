package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/octguy/learniverse-chat/internal/domain"
)

// ReceiptWithUser a receipt row joined with the reader's profile fields
type ReceiptWithUser struct {
	domain.MessageReceipt
	Username    string
	DisplayName string
}

// MessageReceiptRepository read/delivery receipt data access
type MessageReceiptRepository interface {
	FindByMessageAndUser(messageID, userID string) (*domain.MessageReceipt, error)
	// MarkDelivered upserts a DELIVERED receipt. A receipt already in
	// READ state is left untouched.
	MarkDelivered(messageID, userID string) error
	// MarkRead upserts READ receipts for the given messages. read_at is
	// set exactly once: a later call never moves an existing read_at.
	MarkRead(messageIDs []string, userID string, at time.Time) error
	FindByMessage(messageID string) ([]ReceiptWithUser, error)
	// CountUnread counts active messages of the room sent by others that
	// the user holds no READ receipt for.
	CountUnread(roomID, userID string) (int64, error)
	UnreadMessageIDs(roomID, userID string) ([]string, error)
}

type messageReceiptRepository struct {
	db *gorm.DB
}

// NewMessageReceiptRepository creates a new MessageReceiptRepository
func NewMessageReceiptRepository(db *gorm.DB) MessageReceiptRepository {
	return &messageReceiptRepository{db: db}
}

// FindByMessageAndUser returns the receipt or nil
func (r *messageReceiptRepository) FindByMessageAndUser(messageID, userID string) (*domain.MessageReceipt, error) {
	var receipt domain.MessageReceipt
	err := r.db.Where("message_id = ? AND user_id = ?", messageID, userID).First(&receipt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &receipt, nil
}

// MarkDelivered upserts a DELIVERED receipt without regressing READ
func (r *messageReceiptRepository) MarkDelivered(messageID, userID string) error {
	receipt := domain.MessageReceipt{
		MessageID: messageID,
		UserID:    userID,
		Status:    domain.ReceiptStatusDelivered,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&receipt).Error
}

// MarkRead upserts READ receipts; COALESCE keeps the first read_at
func (r *messageReceiptRepository) MarkRead(messageIDs []string, userID string, at time.Time) error {
	if len(messageIDs) == 0 {
		return nil
	}
	receipts := make([]domain.MessageReceipt, 0, len(messageIDs))
	for _, id := range messageIDs {
		receipts = append(receipts, domain.MessageReceipt{
			MessageID: id,
			UserID:    userID,
			Status:    domain.ReceiptStatusRead,
			ReadAt:    &at,
		})
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":  domain.ReceiptStatusRead,
			"read_at": gorm.Expr("COALESCE(read_at, ?)", at),
		}),
	}).Create(&receipts).Error
}

// FindByMessage lists receipts of a message with reader identity
func (r *messageReceiptRepository) FindByMessage(messageID string) ([]ReceiptWithUser, error) {
	var rows []ReceiptWithUser
	err := r.db.Model(&domain.MessageReceipt{}).
		Select("message_receipts.*, u.username AS username, u.display_name AS display_name").
		Joins("LEFT JOIN users u ON u.id = message_receipts.user_id").
		Where("message_receipts.message_id = ?", messageID).
		Order("message_receipts.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountUnread counts unread messages of the room for the user
func (r *messageReceiptRepository) CountUnread(roomID, userID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.ChatMessage{}).
		Where("chat_messages.chat_room_id = ? AND chat_messages.deleted_at IS NULL AND chat_messages.sender_id <> ?", roomID, userID).
		Where(`NOT EXISTS (
			SELECT 1 FROM message_receipts mr
			WHERE mr.message_id = chat_messages.id AND mr.user_id = ? AND mr.status = ?
		)`, userID, domain.ReceiptStatusRead).
		Count(&count).Error
	return count, err
}

// UnreadMessageIDs lists unread message ids of the room for the user
func (r *messageReceiptRepository) UnreadMessageIDs(roomID, userID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&domain.ChatMessage{}).
		Where("chat_messages.chat_room_id = ? AND chat_messages.deleted_at IS NULL AND chat_messages.sender_id <> ?", roomID, userID).
		Where(`NOT EXISTS (
			SELECT 1 FROM message_receipts mr
			WHERE mr.message_id = chat_messages.id AND mr.user_id = ? AND mr.status = ?
		)`, userID, domain.ReceiptStatusRead).
		Order("chat_messages.created_at ASC, chat_messages.seq ASC").
		Pluck("chat_messages.id", &ids).Error
	return ids, err
}
