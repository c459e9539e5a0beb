package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/octguy/learniverse-chat/internal/domain"
)

func TestRestoreAndCreate_DuplicateRollsBackRestore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatParticipantRepository(db)

	left := time.Now().Add(-time.Hour)
	assert.NoError(t, db.Create(&domain.ChatParticipant{
		ChatRoomID: "room-1", ParticipantID: "rejoiner",
		ChatRole: domain.ChatRoleMember, DeletedAt: &left,
	}).Error)
	assert.NoError(t, db.Create(&domain.ChatParticipant{
		ChatRoomID: "room-1", ParticipantID: "member",
		ChatRole: domain.ChatRoleMember,
	}).Error)

	// The insert collides with the existing active member, so the
	// restore in the same transaction must not stick either.
	err := repo.RestoreAndCreate("room-1", "admin", []string{"rejoiner"}, []*domain.ChatParticipant{
		{ChatRoomID: "room-1", ParticipantID: "member", ChatRole: domain.ChatRoleMember},
	})
	assert.Error(t, err)
	assert.True(t, IsDuplicateKey(err))

	restored, findErr := repo.FindActive("room-1", "rejoiner")
	assert.NoError(t, findErr)
	assert.Nil(t, restored)
}

func TestRestoreAndCreate_AppliesBothWrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatParticipantRepository(db)

	left := time.Now().Add(-time.Hour)
	assert.NoError(t, db.Create(&domain.ChatParticipant{
		ChatRoomID: "room-1", ParticipantID: "rejoiner",
		ChatRole: domain.ChatRoleAdmin, DeletedAt: &left,
	}).Error)

	inviter := "admin"
	err := repo.RestoreAndCreate("room-1", inviter, []string{"rejoiner"}, []*domain.ChatParticipant{
		{ChatRoomID: "room-1", ParticipantID: "fresh", ChatRole: domain.ChatRoleMember, InvitedBy: &inviter},
	})
	assert.NoError(t, err)

	rejoined, err := repo.FindActive("room-1", "rejoiner")
	assert.NoError(t, err)
	assert.NotNil(t, rejoined)
	assert.Equal(t, domain.ChatRoleMember, rejoined.ChatRole)
	assert.Equal(t, inviter, *rejoined.InvitedBy)

	added, err := repo.FindActive("room-1", "fresh")
	assert.NoError(t, err)
	assert.NotNil(t, added)
}

func TestRevive_KeepsMembershipState(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatParticipantRepository(db)

	joined := time.Now().Add(-48 * time.Hour)
	lastRead := time.Now().Add(-24 * time.Hour)
	left := time.Now().Add(-time.Hour)
	inviter := "u2"
	assert.NoError(t, db.Create(&domain.ChatParticipant{
		ChatRoomID: "room-1", ParticipantID: "u1",
		ChatRole: domain.ChatRoleMember, InvitedBy: &inviter,
		JoinedAt: joined, LastReadAt: &lastRead, DeletedAt: &left,
	}).Error)

	assert.NoError(t, repo.Revive("room-1", []string{"u1"}))

	p, err := repo.FindActive("room-1", "u1")
	assert.NoError(t, err)
	assert.NotNil(t, p)
	assert.Equal(t, inviter, *p.InvitedBy)
	assert.NotNil(t, p.LastReadAt)
	assert.WithinDuration(t, lastRead, *p.LastReadAt, time.Second)
	assert.WithinDuration(t, joined, p.JoinedAt, time.Second)
}

func TestLeaveRoom_AdminHandsOffToOldestMember(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatParticipantRepository(db)

	now := time.Now()
	assert.NoError(t, db.Create(&domain.ChatParticipant{
		ChatRoomID: "room-1", ParticipantID: "admin",
		ChatRole: domain.ChatRoleAdmin, JoinedAt: now.Add(-3 * time.Hour),
	}).Error)
	assert.NoError(t, db.Create(&domain.ChatParticipant{
		ChatRoomID: "room-1", ParticipantID: "elder",
		ChatRole: domain.ChatRoleMember, JoinedAt: now.Add(-2 * time.Hour),
	}).Error)
	assert.NoError(t, db.Create(&domain.ChatParticipant{
		ChatRoomID: "room-1", ParticipantID: "newcomer",
		ChatRole: domain.ChatRoleMember, JoinedAt: now.Add(-time.Hour),
	}).Error)

	outcome, err := repo.LeaveRoom("room-1", "admin", true, true)
	assert.NoError(t, err)
	assert.False(t, outcome.RoomDeleted)
	assert.Equal(t, "elder", outcome.PromotedID)

	gone, err := repo.FindActive("room-1", "admin")
	assert.NoError(t, err)
	assert.Nil(t, gone)

	promoted, err := repo.FindActive("room-1", "elder")
	assert.NoError(t, err)
	assert.Equal(t, domain.ChatRoleAdmin, promoted.ChatRole)
}

func TestLeaveRoom_LastMemberSoftDeletesRoom(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatParticipantRepository(db)

	assert.NoError(t, db.Create(&domain.ChatRoom{ID: "room-1", IsGroupChat: true, CreatedBy: "u1"}).Error)
	assert.NoError(t, db.Create(&domain.ChatParticipant{
		ChatRoomID: "room-1", ParticipantID: "u1", ChatRole: domain.ChatRoleAdmin,
	}).Error)

	outcome, err := repo.LeaveRoom("room-1", "u1", true, true)
	assert.NoError(t, err)
	assert.True(t, outcome.RoomDeleted)
	assert.Empty(t, outcome.PromotedID)

	var room domain.ChatRoom
	assert.NoError(t, db.First(&room, "id = ?", "room-1").Error)
	assert.NotNil(t, room.DeletedAt)
}

func TestLeaveRoom_EmptyRoomKeptWhenConfiguredOff(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatParticipantRepository(db)

	assert.NoError(t, db.Create(&domain.ChatRoom{ID: "room-1", IsGroupChat: true, CreatedBy: "u1"}).Error)
	assert.NoError(t, db.Create(&domain.ChatParticipant{
		ChatRoomID: "room-1", ParticipantID: "u1", ChatRole: domain.ChatRoleAdmin,
	}).Error)

	outcome, err := repo.LeaveRoom("room-1", "u1", true, false)
	assert.NoError(t, err)
	assert.False(t, outcome.RoomDeleted)

	var room domain.ChatRoom
	assert.NoError(t, db.First(&room, "id = ?", "room-1").Error)
	assert.Nil(t, room.DeletedAt)
}
