package service

import (
	"github.com/octguy/learniverse-chat/internal/common"
	"github.com/octguy/learniverse-chat/internal/domain"
	"github.com/octguy/learniverse-chat/internal/repository"
)

// ChatRoomService handles room lifecycle and the caller-facing room views
type ChatRoomService struct {
	roomRepo        repository.ChatRoomRepository
	participantRepo repository.ChatParticipantRepository
	userRepo        repository.UserRepository
	messageRepo     repository.ChatMessageRepository
	receiptRepo     repository.MessageReceiptRepository
	// deleteEmptyRooms soft-deletes a group room once its last active
	// member leaves
	deleteEmptyRooms bool
}

// NewChatRoomService creates a new ChatRoomService
func NewChatRoomService(
	roomRepo repository.ChatRoomRepository,
	participantRepo repository.ChatParticipantRepository,
	userRepo repository.UserRepository,
	messageRepo repository.ChatMessageRepository,
	receiptRepo repository.MessageReceiptRepository,
	deleteEmptyRooms bool,
) *ChatRoomService {
	return &ChatRoomService{
		roomRepo:         roomRepo,
		participantRepo:  participantRepo,
		userRepo:         userRepo,
		messageRepo:      messageRepo,
		receiptRepo:      receiptRepo,
		deleteEmptyRooms: deleteEmptyRooms,
	}
}

// CreateDirectRoom returns the direct room between the caller and the
// recipient, creating it on first contact. Calling it again returns the
// same room; a soft-deleted pair room is restored, both membership rows
// revived.
func (s *ChatRoomService) CreateDirectRoom(callerID, recipientID string) (*domain.ChatRoomResponse, error) {
	if callerID == recipientID {
		return nil, common.ErrSelfDirectChat
	}

	recipient, err := s.userRepo.FindByID(recipientID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, common.ErrUserNotFound
	}

	existing, err := s.roomRepo.FindDirectRoomBetween(callerID, recipientID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.DeletedAt != nil {
			if err := s.roomRepo.Restore(existing.ID); err != nil {
				return nil, err
			}
			// Revive, not Restore: the pair's rows come back exactly as
			// they were, read state and original inviter included
			if err := s.participantRepo.Revive(existing.ID, []string{callerID, recipientID}); err != nil {
				return nil, err
			}
			existing.DeletedAt = nil
		}
		return s.buildRoomResponse(existing, callerID)
	}

	room := &domain.ChatRoom{
		IsGroupChat: false,
		CreatedBy:   callerID,
	}
	participants := []*domain.ChatParticipant{
		{ParticipantID: callerID, ChatRole: domain.ChatRoleMember},
		{ParticipantID: recipientID, ChatRole: domain.ChatRoleMember, InvitedBy: &callerID},
	}
	if err := s.roomRepo.CreateWithParticipants(room, participants); err != nil {
		if repository.IsDuplicateKey(err) {
			// Two first contacts raced; the other writer's room wins and
			// this call settles on it
			winner, findErr := s.roomRepo.FindDirectRoomBetween(callerID, recipientID)
			if findErr != nil {
				return nil, findErr
			}
			if winner != nil {
				return s.buildRoomResponse(winner, callerID)
			}
		}
		return nil, err
	}

	return &domain.ChatRoomResponse{
		ID:           room.ID,
		IsGroupChat:  false,
		Participants: []string{callerID, recipientID},
		CreatedAt:    room.CreatedAt,
	}, nil
}

// CreateGroupRoom creates a group room. The creator becomes ADMIN, every
// invitee MEMBER. All invitees are resolved before any write.
func (s *ChatRoomService) CreateGroupRoom(callerID string, req *domain.CreateGroupRoomRequest) (*domain.ChatRoomResponse, error) {
	inviteeIDs := dedupe(req.ParticipantIDs)
	for _, id := range inviteeIDs {
		if id == callerID {
			return nil, common.ErrCannotTargetSelf
		}
	}
	if len(inviteeIDs) == 0 {
		return nil, common.ErrBadRequest
	}

	users, err := s.userRepo.FindByIDs(inviteeIDs)
	if err != nil {
		return nil, err
	}
	if len(users) != len(inviteeIDs) {
		return nil, common.ErrParticipantsNotFound
	}

	room := &domain.ChatRoom{
		Name:        &req.Name,
		IsGroupChat: true,
		CreatedBy:   callerID,
	}
	participants := make([]*domain.ChatParticipant, 0, len(inviteeIDs)+1)
	participants = append(participants, &domain.ChatParticipant{
		ParticipantID: callerID,
		ChatRole:      domain.ChatRoleAdmin,
	})
	for _, id := range inviteeIDs {
		participants = append(participants, &domain.ChatParticipant{
			ParticipantID: id,
			ChatRole:      domain.ChatRoleMember,
			InvitedBy:     &callerID,
		})
	}
	if err := s.roomRepo.CreateWithParticipants(room, participants); err != nil {
		return nil, err
	}

	return &domain.ChatRoomResponse{
		ID:           room.ID,
		Name:         room.Name,
		IsGroupChat:  true,
		Participants: append([]string{callerID}, inviteeIDs...),
		CreatedAt:    room.CreatedAt,
	}, nil
}

// ListRooms returns the caller's active rooms, newest activity first.
// roomType filters to "direct" or "group"; empty means both.
func (s *ChatRoomService) ListRooms(callerID, roomType string) ([]domain.ChatRoomResponse, error) {
	var groupFilter *bool
	switch roomType {
	case "":
	case "direct":
		f := false
		groupFilter = &f
	case "group":
		f := true
		groupFilter = &f
	default:
		return nil, common.ErrBadRequest
	}

	rooms, err := s.roomRepo.FindRoomsByUserID(callerID, groupFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.ChatRoomResponse, 0, len(rooms))
	for i := range rooms {
		resp, err := s.buildRoomResponse(&rooms[i], callerID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}
	return responses, nil
}

// GetRoom returns one room view. History stays visible to formerly-active
// participants, so any membership row grants access.
func (s *ChatRoomService) GetRoom(callerID, roomID string) (*domain.ChatRoomResponse, error) {
	room, err := s.roomRepo.FindByID(roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, common.ErrRoomNotFound
	}

	membership, err := s.participantRepo.FindAny(roomID, callerID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, common.ErrNotParticipant
	}

	return s.buildRoomResponse(room, callerID)
}

// Leave removes the caller from a group room. An ADMIN leaving hands the
// role to the earliest-joined remaining member; the last member leaving
// soft-deletes the room when the delete-empty-rooms policy is on.
func (s *ChatRoomService) Leave(callerID, roomID string) error {
	room, err := s.roomRepo.FindByID(roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return common.ErrRoomNotFound
	}
	if !room.IsGroupChat {
		return common.ErrNotGroupChat
	}

	membership, err := s.participantRepo.FindActive(roomID, callerID)
	if err != nil {
		return err
	}
	if membership == nil {
		return common.ErrNotParticipant
	}

	wasAdmin := membership.ChatRole == domain.ChatRoleAdmin
	_, err = s.participantRepo.LeaveRoom(roomID, callerID, wasAdmin, s.deleteEmptyRooms)
	return err
}

// buildRoomResponse assembles the caller-facing room view: active member
// ids, last message summary and the caller's unread count.
func (s *ChatRoomService) buildRoomResponse(room *domain.ChatRoom, callerID string) (*domain.ChatRoomResponse, error) {
	memberIDs, err := s.participantRepo.ActiveIDs(room.ID)
	if err != nil {
		return nil, err
	}

	resp := &domain.ChatRoomResponse{
		ID:           room.ID,
		Name:         room.Name,
		IsGroupChat:  room.IsGroupChat,
		Participants: memberIDs,
		CreatedAt:    room.CreatedAt,
	}

	last, err := s.messageRepo.FindLastMessage(room.ID)
	if err != nil {
		return nil, err
	}
	if last != nil {
		content := last.TextContent
		if content == "" {
			content = last.Metadata
		}
		resp.LastMessage = &domain.LastMessageResponse{
			SenderID:    last.SenderID,
			SenderName:  last.SenderName,
			MessageType: last.MessageType,
			Content:     content,
			SentAt:      last.CreatedAt,
		}
	}

	unread, err := s.receiptRepo.CountUnread(room.ID, callerID)
	if err != nil {
		return nil, err
	}
	resp.UnreadCount = unread

	return resp, nil
}

// dedupe returns ids with duplicates removed, first occurrence order kept
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
