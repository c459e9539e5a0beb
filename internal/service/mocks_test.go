package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/octguy/learniverse-chat/internal/domain"
	"github.com/octguy/learniverse-chat/internal/repository"
)

// --- Mock ChatRoomRepository ---

type mockRoomRepo struct {
	mock.Mock
}

func (m *mockRoomRepo) Create(room *domain.ChatRoom) error {
	return m.Called(room).Error(0)
}

func (m *mockRoomRepo) CreateWithParticipants(room *domain.ChatRoom, participants []*domain.ChatParticipant) error {
	return m.Called(room, participants).Error(0)
}

func (m *mockRoomRepo) FindByID(id string) (*domain.ChatRoom, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatRoom), args.Error(1)
}

func (m *mockRoomRepo) FindDirectRoomBetween(userA, userB string) (*domain.ChatRoom, error) {
	args := m.Called(userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatRoom), args.Error(1)
}

func (m *mockRoomRepo) FindRoomsByUserID(userID string, groupFilter *bool) ([]domain.ChatRoom, error) {
	args := m.Called(userID, groupFilter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatRoom), args.Error(1)
}

func (m *mockRoomRepo) Restore(id string) error {
	return m.Called(id).Error(0)
}

func (m *mockRoomRepo) SoftDelete(id string) error {
	return m.Called(id).Error(0)
}

// --- Mock ChatParticipantRepository ---

type mockParticipantRepo struct {
	mock.Mock
}

func (m *mockParticipantRepo) Create(p *domain.ChatParticipant) error {
	return m.Called(p).Error(0)
}

func (m *mockParticipantRepo) CreateAll(ps []*domain.ChatParticipant) error {
	return m.Called(ps).Error(0)
}

func (m *mockParticipantRepo) FindActive(roomID, userID string) (*domain.ChatParticipant, error) {
	args := m.Called(roomID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatParticipant), args.Error(1)
}

func (m *mockParticipantRepo) FindAny(roomID, userID string) (*domain.ChatParticipant, error) {
	args := m.Called(roomID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatParticipant), args.Error(1)
}

func (m *mockParticipantRepo) FindStates(roomID string) ([]repository.ParticipantState, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ParticipantState), args.Error(1)
}

func (m *mockParticipantRepo) ActiveIDs(roomID string) ([]string, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockParticipantRepo) CountActive(roomID string) (int64, error) {
	args := m.Called(roomID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockParticipantRepo) Restore(roomID, invitedBy string, userIDs []string) error {
	return m.Called(roomID, invitedBy, userIDs).Error(0)
}

func (m *mockParticipantRepo) RestoreAndCreate(roomID, invitedBy string, restoreIDs []string, rows []*domain.ChatParticipant) error {
	return m.Called(roomID, invitedBy, restoreIDs, rows).Error(0)
}

func (m *mockParticipantRepo) Revive(roomID string, userIDs []string) error {
	return m.Called(roomID, userIDs).Error(0)
}

func (m *mockParticipantRepo) LeaveRoom(roomID, userID string, wasAdmin, deleteEmptyRoom bool) (*repository.LeaveOutcome, error) {
	args := m.Called(roomID, userID, wasAdmin, deleteEmptyRoom)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.LeaveOutcome), args.Error(1)
}

func (m *mockParticipantRepo) SoftDelete(roomID, userID string) error {
	return m.Called(roomID, userID).Error(0)
}

func (m *mockParticipantRepo) UpdateRole(roomID, userID, role string) error {
	return m.Called(roomID, userID, role).Error(0)
}

func (m *mockParticipantRepo) OldestActiveExcept(roomID, userID string) (*domain.ChatParticipant, error) {
	args := m.Called(roomID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatParticipant), args.Error(1)
}

func (m *mockParticipantRepo) TouchLastRead(roomID, userID string, at time.Time) error {
	return m.Called(roomID, userID, at).Error(0)
}

// --- Mock UserRepository ---

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByID(id string) (*domain.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) FindByIDs(ids []string) ([]domain.User, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepo) ExistsByID(id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) UpdateLastSeen(id string, seenAt time.Time) error {
	return m.Called(id, seenAt).Error(0)
}

// --- Mock ChatMessageRepository ---

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Create(msg *domain.ChatMessage) error {
	return m.Called(msg).Error(0)
}

func (m *mockMessageRepo) FindByID(id string) (*domain.ChatMessage, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatMessage), args.Error(1)
}

func (m *mockMessageRepo) ListBefore(roomID string, before *time.Time, limit int) ([]repository.MessageWithSender, error) {
	args := m.Called(roomID, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.MessageWithSender), args.Error(1)
}

func (m *mockMessageRepo) ExistsBefore(roomID string, t time.Time) (bool, error) {
	args := m.Called(roomID, t)
	return args.Bool(0), args.Error(1)
}

func (m *mockMessageRepo) FindLastMessage(roomID string) (*repository.MessageWithSender, error) {
	args := m.Called(roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.MessageWithSender), args.Error(1)
}

func (m *mockMessageRepo) UpdateText(id, text string) error {
	return m.Called(id, text).Error(0)
}

func (m *mockMessageRepo) SoftDelete(id string) error {
	return m.Called(id).Error(0)
}

// --- Mock MessageReceiptRepository ---

type mockReceiptRepo struct {
	mock.Mock
}

func (m *mockReceiptRepo) FindByMessageAndUser(messageID, userID string) (*domain.MessageReceipt, error) {
	args := m.Called(messageID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MessageReceipt), args.Error(1)
}

func (m *mockReceiptRepo) MarkDelivered(messageID, userID string) error {
	return m.Called(messageID, userID).Error(0)
}

func (m *mockReceiptRepo) MarkRead(messageIDs []string, userID string, at time.Time) error {
	return m.Called(messageIDs, userID, at).Error(0)
}

func (m *mockReceiptRepo) FindByMessage(messageID string) ([]repository.ReceiptWithUser, error) {
	args := m.Called(messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ReceiptWithUser), args.Error(1)
}

func (m *mockReceiptRepo) CountUnread(roomID, userID string) (int64, error) {
	args := m.Called(roomID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockReceiptRepo) UnreadMessageIDs(roomID, userID string) ([]string, error) {
	args := m.Called(roomID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// --- Mock Broadcaster ---

type mockBroadcaster struct {
	mock.Mock
}

func (m *mockBroadcaster) Publish(topic string, event *domain.SocketEvent) {
	m.Called(topic, event)
}

// --- In-memory presenceStore with an injectable clock ---

type fakeEntry struct {
	value     string
	expiresAt time.Time
}

type fakePresenceStore struct {
	entries map[string]fakeEntry
	now     func() time.Time
}

func newFakePresenceStore(now func() time.Time) *fakePresenceStore {
	return &fakePresenceStore{entries: make(map[string]fakeEntry), now: now}
}

func (f *fakePresenceStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	f.entries[key] = fakeEntry{value: value, expiresAt: f.now().Add(ttl)}
	return nil
}

func (f *fakePresenceStore) Get(_ context.Context, key string) (string, bool, error) {
	entry, ok := f.entries[key]
	if !ok || f.now().After(entry.expiresAt) {
		delete(f.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (f *fakePresenceStore) Del(_ context.Context, key string) error {
	delete(f.entries, key)
	return nil
}

func (f *fakePresenceStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	if entry, ok := f.entries[key]; ok && !f.now().After(entry.expiresAt) {
		entry.expiresAt = f.now().Add(ttl)
		f.entries[key] = entry
	}
	return nil
}
