package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/octguy/learniverse-chat/internal/common"
	"github.com/octguy/learniverse-chat/internal/domain"
	"github.com/octguy/learniverse-chat/internal/repository"
)

func groupRoom(id string) *domain.ChatRoom {
	return &domain.ChatRoom{ID: id, IsGroupChat: true}
}

func activeMember(roomID, userID, role string) *domain.ChatParticipant {
	return &domain.ChatParticipant{ChatRoomID: roomID, ParticipantID: userID, ChatRole: role}
}

func TestAddParticipants_ThreeWayPartition(t *testing.T) {
	rooms := new(mockRoomRepo)
	participants := new(mockParticipantRepo)
	users := new(mockUserRepo)

	left := time.Now().Add(-time.Hour)
	rooms.On("FindByID", "room-1").Return(groupRoom("room-1"), nil)
	participants.On("FindActive", "room-1", "admin").Return(activeMember("room-1", "admin", domain.ChatRoleAdmin), nil)
	users.On("FindByIDs", []string{"rejoiner", "fresh"}).Return([]domain.User{{ID: "rejoiner"}, {ID: "fresh"}}, nil)
	participants.On("FindStates", "room-1").Return([]repository.ParticipantState{
		{ParticipantID: "admin"},
		{ParticipantID: "rejoiner", DeletedAt: &left},
	}, nil)
	participants.On("RestoreAndCreate", "room-1", "admin", []string{"rejoiner"}, mock.MatchedBy(func(ps []*domain.ChatParticipant) bool {
		return len(ps) == 1 && ps[0].ParticipantID == "fresh" && ps[0].ChatRole == domain.ChatRoleMember
	})).Return(nil)

	svc := NewParticipantService(rooms, participants, users)
	resp, err := svc.AddParticipants("room-1", "admin", &domain.AddParticipantsRequest{
		ParticipantIDs: []string{"rejoiner", "fresh"},
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{"rejoiner", "fresh"}, resp.Participants)
	participants.AssertExpectations(t)
}

func TestAddParticipants_ConcurrentInsertTreatedAsSuccess(t *testing.T) {
	rooms := new(mockRoomRepo)
	participants := new(mockParticipantRepo)
	users := new(mockUserRepo)

	rooms.On("FindByID", "room-1").Return(groupRoom("room-1"), nil)
	participants.On("FindActive", "room-1", "admin").Return(activeMember("room-1", "admin", domain.ChatRoleAdmin), nil)
	users.On("FindByIDs", []string{"fresh"}).Return([]domain.User{{ID: "fresh"}}, nil)
	// Another admin inserted the same user after this read.
	participants.On("FindStates", "room-1").Return([]repository.ParticipantState{
		{ParticipantID: "admin"},
	}, nil)
	participants.On("RestoreAndCreate", "room-1", "admin", []string(nil), mock.Anything).Return(gorm.ErrDuplicatedKey)
	participants.On("Restore", "room-1", "admin", []string{"fresh"}).Return(nil)

	svc := NewParticipantService(rooms, participants, users)
	resp, err := svc.AddParticipants("room-1", "admin", &domain.AddParticipantsRequest{
		ParticipantIDs: []string{"fresh"},
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, resp.Participants)
	participants.AssertExpectations(t)
}

func TestAddParticipants_ActiveTargetRejectsWholeCall(t *testing.T) {
	rooms := new(mockRoomRepo)
	participants := new(mockParticipantRepo)
	users := new(mockUserRepo)

	rooms.On("FindByID", "room-1").Return(groupRoom("room-1"), nil)
	participants.On("FindActive", "room-1", "admin").Return(activeMember("room-1", "admin", domain.ChatRoleAdmin), nil)
	users.On("FindByIDs", []string{"member", "fresh"}).Return([]domain.User{{ID: "member"}, {ID: "fresh"}}, nil)
	participants.On("FindStates", "room-1").Return([]repository.ParticipantState{
		{ParticipantID: "admin"},
		{ParticipantID: "member"},
	}, nil)

	svc := NewParticipantService(rooms, participants, users)
	_, err := svc.AddParticipants("room-1", "admin", &domain.AddParticipantsRequest{
		ParticipantIDs: []string{"member", "fresh"},
	})

	assert.ErrorIs(t, err, common.ErrAlreadyParticipant)
	participants.AssertNotCalled(t, "RestoreAndCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddParticipants_UnresolvedTargetBlocksAllWrites(t *testing.T) {
	rooms := new(mockRoomRepo)
	participants := new(mockParticipantRepo)
	users := new(mockUserRepo)

	rooms.On("FindByID", "room-1").Return(groupRoom("room-1"), nil)
	participants.On("FindActive", "room-1", "admin").Return(activeMember("room-1", "admin", domain.ChatRoleAdmin), nil)
	users.On("FindByIDs", []string{"fresh", "ghost"}).Return([]domain.User{{ID: "fresh"}}, nil)

	svc := NewParticipantService(rooms, participants, users)
	_, err := svc.AddParticipants("room-1", "admin", &domain.AddParticipantsRequest{
		ParticipantIDs: []string{"fresh", "ghost"},
	})

	assert.ErrorIs(t, err, common.ErrParticipantsNotFound)
	participants.AssertNotCalled(t, "RestoreAndCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddParticipants_CallerNotActive(t *testing.T) {
	rooms := new(mockRoomRepo)
	participants := new(mockParticipantRepo)

	rooms.On("FindByID", "room-1").Return(groupRoom("room-1"), nil)
	participants.On("FindActive", "room-1", "outsider").Return(nil, nil)

	svc := NewParticipantService(rooms, participants, new(mockUserRepo))
	_, err := svc.AddParticipants("room-1", "outsider", &domain.AddParticipantsRequest{
		ParticipantIDs: []string{"fresh"},
	})

	assert.ErrorIs(t, err, common.ErrNotParticipant)
}

func TestAddParticipants_DirectRoom(t *testing.T) {
	rooms := new(mockRoomRepo)
	rooms.On("FindByID", "room-1").Return(&domain.ChatRoom{ID: "room-1", IsGroupChat: false}, nil)

	svc := NewParticipantService(rooms, new(mockParticipantRepo), new(mockUserRepo))
	_, err := svc.AddParticipants("room-1", "u1", &domain.AddParticipantsRequest{
		ParticipantIDs: []string{"u3"},
	})

	assert.ErrorIs(t, err, common.ErrNotGroupChat)
}

func TestAddParticipants_SelfTarget(t *testing.T) {
	rooms := new(mockRoomRepo)
	participants := new(mockParticipantRepo)

	rooms.On("FindByID", "room-1").Return(groupRoom("room-1"), nil)
	participants.On("FindActive", "room-1", "admin").Return(activeMember("room-1", "admin", domain.ChatRoleAdmin), nil)

	svc := NewParticipantService(rooms, participants, new(mockUserRepo))
	_, err := svc.AddParticipants("room-1", "admin", &domain.AddParticipantsRequest{
		ParticipantIDs: []string{"admin"},
	})

	assert.ErrorIs(t, err, common.ErrCannotTargetSelf)
}

func TestRemoveParticipant_Success(t *testing.T) {
	rooms := new(mockRoomRepo)
	participants := new(mockParticipantRepo)

	rooms.On("FindByID", "room-1").Return(groupRoom("room-1"), nil)
	participants.On("FindActive", "room-1", "admin").Return(activeMember("room-1", "admin", domain.ChatRoleAdmin), nil)
	participants.On("FindActive", "room-1", "member").Return(activeMember("room-1", "member", domain.ChatRoleMember), nil)
	participants.On("SoftDelete", "room-1", "member").Return(nil)

	svc := NewParticipantService(rooms, participants, new(mockUserRepo))
	err := svc.RemoveParticipant("room-1", "admin", "member")

	assert.NoError(t, err)
	participants.AssertExpectations(t)
}

func TestRemoveParticipant_CallerNotAdmin(t *testing.T) {
	rooms := new(mockRoomRepo)
	participants := new(mockParticipantRepo)

	rooms.On("FindByID", "room-1").Return(groupRoom("room-1"), nil)
	participants.On("FindActive", "room-1", "member").Return(activeMember("room-1", "member", domain.ChatRoleMember), nil)

	svc := NewParticipantService(rooms, participants, new(mockUserRepo))
	err := svc.RemoveParticipant("room-1", "member", "other")

	assert.ErrorIs(t, err, common.ErrNotRoomAdmin)
}

func TestRemoveParticipant_CannotRemoveAdmin(t *testing.T) {
	rooms := new(mockRoomRepo)
	participants := new(mockParticipantRepo)

	rooms.On("FindByID", "room-1").Return(groupRoom("room-1"), nil)
	participants.On("FindActive", "room-1", "admin").Return(activeMember("room-1", "admin", domain.ChatRoleAdmin), nil)
	participants.On("FindActive", "room-1", "admin2").Return(activeMember("room-1", "admin2", domain.ChatRoleAdmin), nil)

	svc := NewParticipantService(rooms, participants, new(mockUserRepo))
	err := svc.RemoveParticipant("room-1", "admin", "admin2")

	assert.ErrorIs(t, err, common.ErrCannotRemoveAdmin)
}

func TestRemoveParticipant_SelfTarget(t *testing.T) {
	rooms := new(mockRoomRepo)
	rooms.On("FindByID", "room-1").Return(groupRoom("room-1"), nil)

	svc := NewParticipantService(rooms, new(mockParticipantRepo), new(mockUserRepo))
	err := svc.RemoveParticipant("room-1", "admin", "admin")

	assert.ErrorIs(t, err, common.ErrCannotTargetSelf)
}

func TestRemoveParticipant_TargetAbsent(t *testing.T) {
	rooms := new(mockRoomRepo)
	participants := new(mockParticipantRepo)

	rooms.On("FindByID", "room-1").Return(groupRoom("room-1"), nil)
	participants.On("FindActive", "room-1", "admin").Return(activeMember("room-1", "admin", domain.ChatRoleAdmin), nil)
	participants.On("FindActive", "room-1", "ghost").Return(nil, nil)

	svc := NewParticipantService(rooms, participants, new(mockUserRepo))
	err := svc.RemoveParticipant("room-1", "admin", "ghost")

	assert.ErrorIs(t, err, common.ErrParticipantNotFound)
}
