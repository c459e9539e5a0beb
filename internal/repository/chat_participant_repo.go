package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/octguy/learniverse-chat/internal/domain"
)

// ParticipantState the (user, delete-state) projection used to partition
// add-participant targets into active / soft-deleted / new in one pass
type ParticipantState struct {
	ParticipantID string
	DeletedAt     *time.Time
}

// ChatParticipantRepository membership data access
type ChatParticipantRepository interface {
	Create(p *domain.ChatParticipant) error
	CreateAll(ps []*domain.ChatParticipant) error
	// FindActive returns the active membership row or nil
	FindActive(roomID, userID string) (*domain.ChatParticipant, error)
	// FindAny returns the membership row regardless of delete state, or nil.
	// History stays visible to formerly-active participants.
	FindAny(roomID, userID string) (*domain.ChatParticipant, error)
	// FindStates returns every (user, deletedAt) pair ever attached to the
	// room, soft-deleted rows included
	FindStates(roomID string) ([]ParticipantState, error)
	ActiveIDs(roomID string) ([]string, error)
	CountActive(roomID string) (int64, error)
	// Restore revives soft-deleted rows as fresh memberships: deleted_at
	// cleared, role reset to MEMBER, joined_at reset, inviter recorded
	Restore(roomID, invitedBy string, userIDs []string) error
	// RestoreAndCreate applies a restore and an insert in one
	// transaction; neither survives alone when the other fails
	RestoreAndCreate(roomID, invitedBy string, restoreIDs []string, rows []*domain.ChatParticipant) error
	// Revive clears the delete marker only, keeping role, joined_at,
	// last_read_at and inviter as they were; direct-room restore path
	Revive(roomID string, userIDs []string) error
	SoftDelete(roomID, userID string) error
	UpdateRole(roomID, userID, role string) error
	// OldestActiveExcept returns the earliest-joined active member other
	// than userID, or nil; used for admin handoff on leave
	OldestActiveExcept(roomID, userID string) (*domain.ChatParticipant, error)
	// LeaveRoom soft-deletes the membership and settles the room in the
	// same transaction: the emptied room is soft-deleted when
	// deleteEmptyRoom is set, a departing admin otherwise hands the role
	// to the earliest-joined remaining member.
	LeaveRoom(roomID, userID string, wasAdmin, deleteEmptyRoom bool) (*LeaveOutcome, error)
	TouchLastRead(roomID, userID string, at time.Time) error
}

// LeaveOutcome reports what LeaveRoom settled on
type LeaveOutcome struct {
	RoomDeleted bool
	PromotedID  string
}

type chatParticipantRepository struct {
	db *gorm.DB
}

// NewChatParticipantRepository creates a new ChatParticipantRepository
func NewChatParticipantRepository(db *gorm.DB) ChatParticipantRepository {
	return &chatParticipantRepository{db: db}
}

// Create inserts one membership row
func (r *chatParticipantRepository) Create(p *domain.ChatParticipant) error {
	return r.db.Create(p).Error
}

// CreateAll inserts membership rows in one statement
func (r *chatParticipantRepository) CreateAll(ps []*domain.ChatParticipant) error {
	if len(ps) == 0 {
		return nil
	}
	return r.db.Create(ps).Error
}

// FindActive returns the active membership row or nil
func (r *chatParticipantRepository) FindActive(roomID, userID string) (*domain.ChatParticipant, error) {
	var p domain.ChatParticipant
	err := r.db.
		Where("chat_room_id = ? AND participant_id = ? AND deleted_at IS NULL", roomID, userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// FindAny returns the membership row regardless of delete state, or nil
func (r *chatParticipantRepository) FindAny(roomID, userID string) (*domain.ChatParticipant, error) {
	var p domain.ChatParticipant
	err := r.db.
		Where("chat_room_id = ? AND participant_id = ?", roomID, userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// FindStates projects every membership row of the room to (user, deletedAt)
func (r *chatParticipantRepository) FindStates(roomID string) ([]ParticipantState, error) {
	var states []ParticipantState
	err := r.db.Model(&domain.ChatParticipant{}).
		Select("participant_id, deleted_at").
		Where("chat_room_id = ?", roomID).
		Scan(&states).Error
	if err != nil {
		return nil, err
	}
	return states, nil
}

// ActiveIDs lists the active member ids of a room
func (r *chatParticipantRepository) ActiveIDs(roomID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&domain.ChatParticipant{}).
		Where("chat_room_id = ? AND deleted_at IS NULL", roomID).
		Order("joined_at ASC").
		Pluck("participant_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CountActive counts active members of a room
func (r *chatParticipantRepository) CountActive(roomID string) (int64, error) {
	var count int64
	err := r.db.Model(&domain.ChatParticipant{}).
		Where("chat_room_id = ? AND deleted_at IS NULL", roomID).
		Count(&count).Error
	return count, err
}

// Restore revives previously-left members of a room
func (r *chatParticipantRepository) Restore(roomID, invitedBy string, userIDs []string) error {
	return restoreTx(r.db, roomID, invitedBy, userIDs)
}

func restoreTx(tx *gorm.DB, roomID, invitedBy string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	return tx.Model(&domain.ChatParticipant{}).
		Where("chat_room_id = ? AND participant_id IN ? AND deleted_at IS NOT NULL", roomID, userIDs).
		Updates(map[string]interface{}{
			"deleted_at":   nil,
			"chat_role":    domain.ChatRoleMember,
			"joined_at":    time.Now(),
			"last_read_at": nil,
			"invited_by":   invitedBy,
		}).Error
}

// RestoreAndCreate applies both membership writes of an add-participants
// call atomically
func (r *chatParticipantRepository) RestoreAndCreate(roomID, invitedBy string, restoreIDs []string, rows []*domain.ChatParticipant) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := restoreTx(tx, roomID, invitedBy, restoreIDs); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(rows).Error
	})
}

// Revive clears the delete marker and nothing else
func (r *chatParticipantRepository) Revive(roomID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.db.Model(&domain.ChatParticipant{}).
		Where("chat_room_id = ? AND participant_id IN ? AND deleted_at IS NOT NULL", roomID, userIDs).
		Update("deleted_at", nil).Error
}

// SoftDelete marks a membership row deleted
func (r *chatParticipantRepository) SoftDelete(roomID, userID string) error {
	return r.db.Model(&domain.ChatParticipant{}).
		Where("chat_room_id = ? AND participant_id = ? AND deleted_at IS NULL", roomID, userID).
		Update("deleted_at", time.Now()).Error
}

// UpdateRole changes a member's role
func (r *chatParticipantRepository) UpdateRole(roomID, userID, role string) error {
	return r.db.Model(&domain.ChatParticipant{}).
		Where("chat_room_id = ? AND participant_id = ? AND deleted_at IS NULL", roomID, userID).
		Update("chat_role", role).Error
}

// OldestActiveExcept returns the earliest-joined active member other than userID
func (r *chatParticipantRepository) OldestActiveExcept(roomID, userID string) (*domain.ChatParticipant, error) {
	var p domain.ChatParticipant
	err := r.db.
		Where("chat_room_id = ? AND participant_id <> ? AND deleted_at IS NULL", roomID, userID).
		Order("joined_at ASC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// LeaveRoom runs the whole departure as one transaction. Remaining-member
// count and admin handoff are computed inside it so a concurrent leave
// cannot interleave between the soft delete and the settlement.
func (r *chatParticipantRepository) LeaveRoom(roomID, userID string, wasAdmin, deleteEmptyRoom bool) (*LeaveOutcome, error) {
	outcome := &LeaveOutcome{}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.ChatParticipant{}).
			Where("chat_room_id = ? AND participant_id = ? AND deleted_at IS NULL", roomID, userID).
			Update("deleted_at", time.Now()).Error; err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&domain.ChatParticipant{}).
			Where("chat_room_id = ? AND deleted_at IS NULL", roomID).
			Count(&remaining).Error; err != nil {
			return err
		}

		if remaining == 0 {
			if deleteEmptyRoom {
				if err := tx.Model(&domain.ChatRoom{}).
					Where("id = ? AND deleted_at IS NULL", roomID).
					Update("deleted_at", time.Now()).Error; err != nil {
					return err
				}
				outcome.RoomDeleted = true
			}
			return nil
		}

		if wasAdmin {
			var next domain.ChatParticipant
			err := tx.
				Where("chat_room_id = ? AND participant_id <> ? AND deleted_at IS NULL", roomID, userID).
				Order("joined_at ASC").
				First(&next).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				return err
			}
			if err := tx.Model(&domain.ChatParticipant{}).
				Where("chat_room_id = ? AND participant_id = ? AND deleted_at IS NULL", roomID, next.ParticipantID).
				Update("chat_role", domain.ChatRoleAdmin).Error; err != nil {
				return err
			}
			outcome.PromotedID = next.ParticipantID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// TouchLastRead updates the member's last_read_at watermark
func (r *chatParticipantRepository) TouchLastRead(roomID, userID string, at time.Time) error {
	return r.db.Model(&domain.ChatParticipant{}).
		Where("chat_room_id = ? AND participant_id = ? AND deleted_at IS NULL", roomID, userID).
		UpdateColumn("last_read_at", at).Error
}
