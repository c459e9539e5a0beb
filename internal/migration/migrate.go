package migration

import (
	"gorm.io/gorm"

	"github.com/octguy/learniverse-chat/internal/domain"
)

// Run executes AutoMigrate for every chat entity. Tables are created when
// missing; the users table is shared with the identity service and only
// extended, never seeded, from here.
func Run(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.ChatRoom{},
		&domain.ChatParticipant{},
		&domain.ChatMessage{},
		&domain.MessageReceipt{},
	)
}
