package repository

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/octguy/learniverse-chat/internal/domain"
)

// setupTestDB opens an in-memory sqlite database with the chat schema.
// TranslateError makes unique-constraint violations surface as
// gorm.ErrDuplicatedKey, same as the translated MySQL path.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	err = db.AutoMigrate(
		&domain.User{},
		&domain.ChatRoom{},
		&domain.ChatParticipant{},
		&domain.ChatMessage{},
		&domain.MessageReceipt{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}
