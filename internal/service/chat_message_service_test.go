package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/octguy/learniverse-chat/internal/common"
	"github.com/octguy/learniverse-chat/internal/domain"
	"github.com/octguy/learniverse-chat/internal/repository"
)

// --- Mock storage.Uploader ---

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, data []byte, contentType, kind string) (string, error) {
	args := m.Called(ctx, data, contentType, kind)
	return args.String(0), args.Error(1)
}

type messageServiceMocks struct {
	messages     *mockMessageRepo
	rooms        *mockRoomRepo
	participants *mockParticipantRepo
	users        *mockUserRepo
	uploader     *mockUploader
	hub          *mockBroadcaster
}

func newMessageService() (*ChatMessageService, *messageServiceMocks) {
	m := &messageServiceMocks{
		messages:     new(mockMessageRepo),
		rooms:        new(mockRoomRepo),
		participants: new(mockParticipantRepo),
		users:        new(mockUserRepo),
		uploader:     new(mockUploader),
		hub:          new(mockBroadcaster),
	}
	svc := NewChatMessageService(m.messages, m.rooms, m.participants, m.users, m.uploader, m.hub)
	return svc, m
}

func (m *messageServiceMocks) expectActiveSender(roomID, userID string) {
	m.rooms.On("FindByID", roomID).Return(groupRoom(roomID), nil)
	m.participants.On("FindActive", roomID, userID).Return(activeMember(roomID, userID, domain.ChatRoleMember), nil)
	m.users.On("FindByID", userID).Return(&domain.User{ID: userID, DisplayName: "Alice"}, nil)
}

func TestSend_TextMessage(t *testing.T) {
	svc, m := newMessageService()

	m.expectActiveSender("room-1", "u1")
	m.messages.On("Create", mock.AnythingOfType("*domain.ChatMessage")).Run(func(args mock.Arguments) {
		msg := args.Get(0).(*domain.ChatMessage)
		msg.ID = "msg-1"
		msg.CreatedAt = time.Now()
	}).Return(nil)
	m.participants.On("TouchLastRead", "room-1", "u1", mock.AnythingOfType("time.Time")).Return(nil)
	m.hub.On("Publish", domain.RoomTopic("room-1"), mock.MatchedBy(func(e *domain.SocketEvent) bool {
		return e.Type == domain.EventMessageNew
	})).Return()

	resp, err := svc.Send("room-1", "u1", &domain.SendMessageRequest{
		MessageType: domain.MessageTypeText,
		TextContent: "  hello  ",
	})

	assert.NoError(t, err)
	assert.Equal(t, "msg-1", resp.ID)
	assert.Equal(t, "hello", resp.TextContent)
	assert.Equal(t, "Alice", resp.Sender.SenderName)
	m.hub.AssertExpectations(t)
	m.participants.AssertCalled(t, "TouchLastRead", "room-1", "u1", mock.AnythingOfType("time.Time"))
}

func TestSend_BlankTextRejected(t *testing.T) {
	svc, m := newMessageService()
	m.expectActiveSender("room-1", "u1")

	_, err := svc.Send("room-1", "u1", &domain.SendMessageRequest{
		MessageType: domain.MessageTypeText,
		TextContent: "   ",
	})

	assert.ErrorIs(t, err, common.ErrBlankTextContent)
	m.messages.AssertNotCalled(t, "Create", mock.Anything)
}

func TestSend_ImageWithoutMetadataRejected(t *testing.T) {
	svc, m := newMessageService()
	m.expectActiveSender("room-1", "u1")

	_, err := svc.Send("room-1", "u1", &domain.SendMessageRequest{
		MessageType: domain.MessageTypeImage,
	})

	assert.ErrorIs(t, err, common.ErrMissingMetadata)
}

func TestSend_NonParticipantRejected(t *testing.T) {
	svc, m := newMessageService()
	m.rooms.On("FindByID", "room-1").Return(groupRoom("room-1"), nil)
	m.participants.On("FindActive", "room-1", "outsider").Return(nil, nil)

	_, err := svc.Send("room-1", "outsider", &domain.SendMessageRequest{
		MessageType: domain.MessageTypeText,
		TextContent: "hi",
	})

	assert.ErrorIs(t, err, common.ErrNotParticipant)
}

func TestSend_ReplyToOtherRoomRejected(t *testing.T) {
	svc, m := newMessageService()
	m.expectActiveSender("room-1", "u1")
	parentID := "msg-other"
	m.messages.On("FindByID", parentID).Return(&domain.ChatMessage{ID: parentID, ChatRoomID: "room-2"}, nil)

	_, err := svc.Send("room-1", "u1", &domain.SendMessageRequest{
		MessageType:     domain.MessageTypeText,
		TextContent:     "reply",
		ParentMessageID: &parentID,
	})

	assert.ErrorIs(t, err, common.ErrInvalidParent)
}

func TestSend_NestedReplyRejected(t *testing.T) {
	svc, m := newMessageService()
	m.expectActiveSender("room-1", "u1")
	grandparent := "msg-0"
	parentID := "msg-1"
	m.messages.On("FindByID", parentID).Return(&domain.ChatMessage{
		ID: parentID, ChatRoomID: "room-1", ParentMessageID: &grandparent,
	}, nil)

	_, err := svc.Send("room-1", "u1", &domain.SendMessageRequest{
		MessageType:     domain.MessageTypeText,
		TextContent:     "reply to a reply",
		ParentMessageID: &parentID,
	})

	assert.ErrorIs(t, err, common.ErrInvalidParent)
}

func TestSendAttachment_UploadsAndStoresURL(t *testing.T) {
	svc, m := newMessageService()
	m.expectActiveSender("room-1", "u1")

	data := []byte{0xff, 0xd8, 0xff}
	m.uploader.On("Upload", mock.Anything, data, "image/jpeg", "image").Return("https://cdn.example.com/image/a.jpg", nil)
	m.messages.On("Create", mock.AnythingOfType("*domain.ChatMessage")).Run(func(args mock.Arguments) {
		args.Get(0).(*domain.ChatMessage).ID = "msg-1"
	}).Return(nil)
	m.participants.On("TouchLastRead", "room-1", "u1", mock.AnythingOfType("time.Time")).Return(nil)
	m.hub.On("Publish", domain.RoomTopic("room-1"), mock.Anything).Return()

	resp, err := svc.SendAttachment(context.Background(), "room-1", "u1", domain.MessageTypeImage, "look", data, "image/jpeg")

	assert.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/image/a.jpg", resp.Metadata)
	assert.Equal(t, "look", resp.TextContent)
	m.uploader.AssertExpectations(t)
}

func TestSendAttachment_TextTypeRejected(t *testing.T) {
	svc, m := newMessageService()
	m.expectActiveSender("room-1", "u1")

	_, err := svc.SendAttachment(context.Background(), "room-1", "u1", domain.MessageTypeText, "", []byte{1}, "text/plain")

	assert.ErrorIs(t, err, common.ErrInvalidMessageType)
	m.uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEdit_OnlySenderMayEdit(t *testing.T) {
	svc, m := newMessageService()
	m.messages.On("FindByID", "msg-1").Return(&domain.ChatMessage{
		ID: "msg-1", SenderID: "u1", MessageType: domain.MessageTypeText,
	}, nil)

	_, err := svc.Edit("msg-1", "u2", "changed")

	assert.ErrorIs(t, err, common.ErrNotMessageSender)
}

func TestEdit_NonTextNotEditable(t *testing.T) {
	svc, m := newMessageService()
	m.messages.On("FindByID", "msg-1").Return(&domain.ChatMessage{
		ID: "msg-1", SenderID: "u1", MessageType: domain.MessageTypeImage,
	}, nil)

	_, err := svc.Edit("msg-1", "u1", "caption change")

	assert.ErrorIs(t, err, common.ErrNotEditable)
}

func TestEdit_UpdatesTextAndBroadcasts(t *testing.T) {
	svc, m := newMessageService()
	created := time.Now().Add(-time.Minute)
	m.messages.On("FindByID", "msg-1").Return(&domain.ChatMessage{
		ID: "msg-1", ChatRoomID: "room-1", SenderID: "u1",
		MessageType: domain.MessageTypeText, TextContent: "old",
		CreatedAt: created, UpdatedAt: created,
	}, nil)
	m.messages.On("UpdateText", "msg-1", "new text").Return(nil)
	m.users.On("FindByID", "u1").Return(&domain.User{ID: "u1", DisplayName: "Alice"}, nil)
	m.hub.On("Publish", domain.RoomTopic("room-1"), mock.MatchedBy(func(e *domain.SocketEvent) bool {
		return e.Type == domain.EventMessageEdited
	})).Return()

	resp, err := svc.Edit("msg-1", "u1", "new text")

	assert.NoError(t, err)
	assert.Equal(t, "new text", resp.TextContent)
	assert.True(t, resp.IsEdited)
	m.hub.AssertExpectations(t)
}

func TestDelete_BroadcastsDeletion(t *testing.T) {
	svc, m := newMessageService()
	m.messages.On("FindByID", "msg-1").Return(&domain.ChatMessage{
		ID: "msg-1", ChatRoomID: "room-1", SenderID: "u1", MessageType: domain.MessageTypeText,
	}, nil)
	m.messages.On("SoftDelete", "msg-1").Return(nil)
	m.hub.On("Publish", domain.RoomTopic("room-1"), mock.MatchedBy(func(e *domain.SocketEvent) bool {
		payload, ok := e.Payload.(*domain.MessageDeletedEvent)
		return e.Type == domain.EventMessageDeleted && ok && payload.MessageID == "msg-1"
	})).Return()

	err := svc.Delete("msg-1", "u1")

	assert.NoError(t, err)
	m.hub.AssertExpectations(t)
}

func TestDelete_NotSender(t *testing.T) {
	svc, m := newMessageService()
	m.messages.On("FindByID", "msg-1").Return(&domain.ChatMessage{
		ID: "msg-1", ChatRoomID: "room-1", SenderID: "u1",
	}, nil)

	err := svc.Delete("msg-1", "u2")

	assert.ErrorIs(t, err, common.ErrNotMessageSender)
	m.messages.AssertNotCalled(t, "SoftDelete", mock.Anything)
}

func TestList_FirstPageHasNext(t *testing.T) {
	svc, m := newMessageService()
	m.rooms.On("FindByID", "room-1").Return(groupRoom("room-1"), nil)
	m.participants.On("FindAny", "room-1", "u1").Return(activeMember("room-1", "u1", domain.ChatRoleMember), nil)

	newest := time.Date(2026, 8, 30, 12, 0, 2, 0, time.UTC)
	older := time.Date(2026, 8, 30, 12, 0, 1, 0, time.UTC)
	m.messages.On("ListBefore", "room-1", (*time.Time)(nil), 2).Return([]repository.MessageWithSender{
		{ChatMessage: domain.ChatMessage{ID: "msg-3", ChatRoomID: "room-1", CreatedAt: newest, UpdatedAt: newest}},
		{ChatMessage: domain.ChatMessage{ID: "msg-2", ChatRoomID: "room-1", CreatedAt: older, UpdatedAt: older}},
	}, nil)
	m.messages.On("ExistsBefore", "room-1", older).Return(true, nil)

	page, err := svc.List("room-1", "u1", nil, 2)

	assert.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, "msg-3", page.Data[0].ID)
	assert.True(t, page.HasNext)
	assert.Equal(t, older.UnixMicro(), *page.NextCursor)
}

func TestList_SecondPageExhausts(t *testing.T) {
	svc, m := newMessageService()
	m.rooms.On("FindByID", "room-1").Return(groupRoom("room-1"), nil)
	m.participants.On("FindAny", "room-1", "u1").Return(activeMember("room-1", "u1", domain.ChatRoleMember), nil)

	cursorTime := time.Date(2026, 8, 30, 12, 0, 1, 0, time.UTC)
	oldest := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	cursor := cursorTime.UnixMicro()
	m.messages.On("ListBefore", "room-1", mock.MatchedBy(func(before *time.Time) bool {
		return before != nil && before.Equal(cursorTime)
	}), 2).Return([]repository.MessageWithSender{
		{ChatMessage: domain.ChatMessage{ID: "msg-1", ChatRoomID: "room-1", CreatedAt: oldest, UpdatedAt: oldest}},
	}, nil)
	m.messages.On("ExistsBefore", "room-1", oldest).Return(false, nil)

	page, err := svc.List("room-1", "u1", &cursor, 2)

	assert.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.False(t, page.HasNext)
}

func TestList_EmptyRoom(t *testing.T) {
	svc, m := newMessageService()
	m.rooms.On("FindByID", "room-1").Return(groupRoom("room-1"), nil)
	m.participants.On("FindAny", "room-1", "u1").Return(activeMember("room-1", "u1", domain.ChatRoleMember), nil)
	m.messages.On("ListBefore", "room-1", (*time.Time)(nil), defaultPageLimit).Return([]repository.MessageWithSender{}, nil)

	page, err := svc.List("room-1", "u1", nil, 0)

	assert.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.False(t, page.HasNext)
	assert.Nil(t, page.NextCursor)
	m.messages.AssertNotCalled(t, "ExistsBefore", mock.Anything, mock.Anything)
}

func TestList_FormerMemberKeepsHistoryAccess(t *testing.T) {
	svc, m := newMessageService()
	left := time.Now().Add(-time.Hour)
	m.rooms.On("FindByID", "room-1").Return(groupRoom("room-1"), nil)
	m.participants.On("FindAny", "room-1", "u1").Return(&domain.ChatParticipant{
		ChatRoomID: "room-1", ParticipantID: "u1", DeletedAt: &left,
	}, nil)
	m.messages.On("ListBefore", "room-1", (*time.Time)(nil), defaultPageLimit).Return([]repository.MessageWithSender{}, nil)

	_, err := svc.List("room-1", "u1", nil, 0)

	assert.NoError(t, err)
}

func TestGetByID_NotParticipant(t *testing.T) {
	svc, m := newMessageService()
	m.messages.On("FindByID", "msg-1").Return(&domain.ChatMessage{ID: "msg-1", ChatRoomID: "room-1"}, nil)
	m.participants.On("FindAny", "room-1", "outsider").Return(nil, nil)

	_, err := svc.GetByID("msg-1", "outsider")

	assert.ErrorIs(t, err, common.ErrNotParticipant)
}
