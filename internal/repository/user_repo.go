package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/octguy/learniverse-chat/internal/domain"
)

// UserRepository read-only identity lookups plus the single durable
// presence write (last_seen_at)
type UserRepository interface {
	FindByID(id string) (*domain.User, error)
	FindByIDs(ids []string) ([]domain.User, error)
	ExistsByID(id string) (bool, error)
	UpdateLastSeen(id string, seenAt time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByID returns the user or nil when absent
func (r *userRepository) FindByID(id string) (*domain.User, error) {
	var user domain.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByIDs returns every existing user among ids
func (r *userRepository) FindByIDs(ids []string) ([]domain.User, error) {
	var users []domain.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ExistsByID reports whether a user row exists
func (r *userRepository) ExistsByID(id string) (bool, error) {
	var count int64
	err := r.db.Model(&domain.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// UpdateLastSeen records the offline transition timestamp
func (r *userRepository) UpdateLastSeen(id string, seenAt time.Time) error {
	return r.db.Model(&domain.User{}).Where("id = ?", id).
		UpdateColumn("last_seen_at", seenAt).Error
}
