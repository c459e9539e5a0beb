package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/octguy/learniverse-chat/internal/domain"
)

func TestMessageCreate_MovesRoomActivityTimestamp(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatMessageRepository(db)

	stale := time.Now().Add(-24 * time.Hour)
	room := &domain.ChatRoom{ID: "room-1", CreatedBy: "u1", CreatedAt: stale, UpdatedAt: stale}
	assert.NoError(t, db.Create(room).Error)

	sentAt := time.Now()
	msg := &domain.ChatMessage{
		Seq:         1,
		ChatRoomID:  "room-1",
		SenderID:    "u1",
		MessageType: domain.MessageTypeText,
		TextContent: "hello",
		CreatedAt:   sentAt,
	}
	assert.NoError(t, repo.Create(msg))

	var reloaded domain.ChatRoom
	assert.NoError(t, db.First(&reloaded, "id = ?", "room-1").Error)
	assert.WithinDuration(t, sentAt, reloaded.UpdatedAt, time.Second)
}
