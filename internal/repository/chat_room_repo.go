package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/octguy/learniverse-chat/internal/domain"
)

// ChatRoomRepository chat room data access
type ChatRoomRepository interface {
	Create(room *domain.ChatRoom) error
	// CreateWithParticipants persists a room and its initial membership
	// rows in one transaction; a room row never exists without members.
	CreateWithParticipants(room *domain.ChatRoom, participants []*domain.ChatParticipant) error
	FindByID(id string) (*domain.ChatRoom, error)
	// FindDirectRoomBetween returns the direct room shared by the pair,
	// including soft-deleted rooms so callers can restore instead of
	// creating a duplicate. Returns nil when no such room exists.
	FindDirectRoomBetween(userA, userB string) (*domain.ChatRoom, error)
	// FindRoomsByUserID returns active rooms the user actively
	// participates in, newest activity first. groupFilter: nil for all,
	// otherwise restrict to group (true) or direct (false) rooms.
	FindRoomsByUserID(userID string, groupFilter *bool) ([]domain.ChatRoom, error)
	Restore(id string) error
	SoftDelete(id string) error
}

type chatRoomRepository struct {
	db *gorm.DB
}

// NewChatRoomRepository creates a new ChatRoomRepository
func NewChatRoomRepository(db *gorm.DB) ChatRoomRepository {
	return &chatRoomRepository{db: db}
}

// Create persists a new room
func (r *chatRoomRepository) Create(room *domain.ChatRoom) error {
	return r.db.Create(room).Error
}

// CreateWithParticipants persists the room and membership rows atomically.
// Participant rows inherit the room id assigned on create.
func (r *chatRoomRepository) CreateWithParticipants(room *domain.ChatRoom, participants []*domain.ChatParticipant) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		for i := range participants {
			participants[i].ChatRoomID = room.ID
		}
		return tx.Create(participants).Error
	})
}

// FindByID returns the active room or nil when absent
func (r *chatRoomRepository) FindByID(id string) (*domain.ChatRoom, error) {
	var room domain.ChatRoom
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

// FindDirectRoomBetween finds the (possibly soft-deleted) direct room
// shared by two users. The participant rows are matched regardless of
// delete state: the logical pair identifies the room.
func (r *chatRoomRepository) FindDirectRoomBetween(userA, userB string) (*domain.ChatRoom, error) {
	var room domain.ChatRoom
	err := r.db.
		Joins("JOIN chat_participants pa ON pa.chat_room_id = chat_rooms.id AND pa.participant_id = ?", userA).
		Joins("JOIN chat_participants pb ON pb.chat_room_id = chat_rooms.id AND pb.participant_id = ?", userB).
		Where("chat_rooms.is_group_chat = ?", false).
		First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

// FindRoomsByUserID lists the caller's active rooms
func (r *chatRoomRepository) FindRoomsByUserID(userID string, groupFilter *bool) ([]domain.ChatRoom, error) {
	q := r.db.
		Joins("JOIN chat_participants p ON p.chat_room_id = chat_rooms.id").
		Where("p.participant_id = ? AND p.deleted_at IS NULL", userID).
		Where("chat_rooms.deleted_at IS NULL").
		Order("chat_rooms.updated_at DESC")

	if groupFilter != nil {
		q = q.Where("chat_rooms.is_group_chat = ?", *groupFilter)
	}

	var rooms []domain.ChatRoom
	if err := q.Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// Restore clears the soft-delete marker on a room
func (r *chatRoomRepository) Restore(id string) error {
	return r.db.Model(&domain.ChatRoom{}).Where("id = ?", id).
		Update("deleted_at", nil).Error
}

// SoftDelete marks a room deleted without removing history
func (r *chatRoomRepository) SoftDelete(id string) error {
	return r.db.Model(&domain.ChatRoom{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now()).Error
}
