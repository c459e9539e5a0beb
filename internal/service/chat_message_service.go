package service

import (
	"context"
	"strings"
	"time"

	"github.com/octguy/learniverse-chat/internal/common"
	"github.com/octguy/learniverse-chat/internal/domain"
	"github.com/octguy/learniverse-chat/internal/repository"
	"github.com/octguy/learniverse-chat/pkg/storage"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// ChatMessageService handles message writes, reads and the room history
type ChatMessageService struct {
	messageRepo     repository.ChatMessageRepository
	roomRepo        repository.ChatRoomRepository
	participantRepo repository.ChatParticipantRepository
	userRepo        repository.UserRepository
	uploader        storage.Uploader
	hub             Broadcaster
}

// NewChatMessageService creates a new ChatMessageService
func NewChatMessageService(
	messageRepo repository.ChatMessageRepository,
	roomRepo repository.ChatRoomRepository,
	participantRepo repository.ChatParticipantRepository,
	userRepo repository.UserRepository,
	uploader storage.Uploader,
	hub Broadcaster,
) *ChatMessageService {
	return &ChatMessageService{
		messageRepo:     messageRepo,
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		uploader:        uploader,
		hub:             hub,
	}
}

// Send validates and persists one message, then broadcasts it to the room
// topic. Sending counts as reading: the sender's last_read_at moves to the
// message timestamp.
func (s *ChatMessageService) Send(roomID, senderID string, req *domain.SendMessageRequest) (*domain.MessageResponse, error) {
	sender, err := s.authorizeSender(roomID, senderID)
	if err != nil {
		return nil, err
	}

	messageType := req.MessageType
	if messageType == "" {
		messageType = domain.MessageTypeText
	}
	if !domain.ValidMessageType(messageType) {
		return nil, common.ErrInvalidMessageType
	}

	msg := &domain.ChatMessage{
		ChatRoomID:      roomID,
		SenderID:        senderID,
		ParentMessageID: req.ParentMessageID,
		MessageType:     messageType,
		TextContent:     strings.TrimSpace(req.TextContent),
		Metadata:        req.Metadata,
	}
	if err := msg.ValidateContent(); err != nil {
		return nil, err
	}
	if err := s.validateParent(roomID, req.ParentMessageID); err != nil {
		return nil, err
	}

	return s.persistAndBroadcast(msg, sender)
}

// SendAttachment uploads the file to object storage and persists a
// non-text message carrying the resulting URL in metadata.
func (s *ChatMessageService) SendAttachment(ctx context.Context, roomID, senderID, messageType, caption string, data []byte, contentType string) (*domain.MessageResponse, error) {
	sender, err := s.authorizeSender(roomID, senderID)
	if err != nil {
		return nil, err
	}

	if messageType == domain.MessageTypeText || !domain.ValidMessageType(messageType) {
		return nil, common.ErrInvalidMessageType
	}
	if len(data) == 0 {
		return nil, common.ErrMissingMetadata
	}

	if s.uploader == nil {
		return nil, common.ErrStorageDisabled
	}

	url, err := s.uploader.Upload(ctx, data, contentType, strings.ToLower(messageType))
	if err != nil {
		return nil, err
	}

	msg := &domain.ChatMessage{
		ChatRoomID:  roomID,
		SenderID:    senderID,
		MessageType: messageType,
		TextContent: strings.TrimSpace(caption),
		Metadata:    url,
	}
	return s.persistAndBroadcast(msg, sender)
}

// Edit replaces the text of a TEXT message. Only the sender may edit;
// edited status is derived from created_at != updated_at.
func (s *ChatMessageService) Edit(messageID, callerID, newText string) (*domain.MessageResponse, error) {
	msg, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, common.ErrMessageNotFound
	}
	if msg.SenderID != callerID {
		return nil, common.ErrNotMessageSender
	}
	if msg.MessageType != domain.MessageTypeText {
		return nil, common.ErrNotEditable
	}

	newText = strings.TrimSpace(newText)
	if newText == "" {
		return nil, common.ErrBlankTextContent
	}

	if err := s.messageRepo.UpdateText(messageID, newText); err != nil {
		return nil, err
	}
	msg.TextContent = newText
	msg.UpdatedAt = time.Now()

	resp, err := s.toResponse(msg)
	if err != nil {
		return nil, err
	}
	s.hub.Publish(domain.RoomTopic(msg.ChatRoomID), &domain.SocketEvent{
		Type:    domain.EventMessageEdited,
		Payload: resp,
	})
	return resp, nil
}

// Delete soft-deletes a message. Only the sender may delete.
func (s *ChatMessageService) Delete(messageID, callerID string) error {
	msg, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return common.ErrMessageNotFound
	}
	if msg.SenderID != callerID {
		return common.ErrNotMessageSender
	}

	if err := s.messageRepo.SoftDelete(messageID); err != nil {
		return err
	}
	s.hub.Publish(domain.RoomTopic(msg.ChatRoomID), &domain.SocketEvent{
		Type: domain.EventMessageDeleted,
		Payload: &domain.MessageDeletedEvent{
			ChatRoomID: msg.ChatRoomID,
			MessageID:  messageID,
		},
	})
	return nil
}

// List returns one history page, newest first. The cursor is the unix
// microsecond timestamp of the last item of the previous page; has_next
// comes from an existence probe below the page, which stays correct when
// messages are inserted concurrently. Former members keep read access.
func (s *ChatMessageService) List(roomID, callerID string, cursor *int64, limit int) (*domain.MessagePage, error) {
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

	if limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}

	var before *time.Time
	if cursor != nil {
		t := time.UnixMicro(*cursor).UTC()
		before = &t
	}

	rows, err := s.messageRepo.ListBefore(roomID, before, limit)
	if err != nil {
		return nil, err
	}

	page := &domain.MessagePage{Data: make([]domain.MessageResponse, 0, len(rows))}
	for i := range rows {
		page.Data = append(page.Data, *rowToResponse(&rows[i]))
	}
	if len(rows) == 0 {
		return page, nil
	}

	oldest := rows[len(rows)-1].CreatedAt
	next := oldest.UnixMicro()
	page.NextCursor = &next

	hasNext, err := s.messageRepo.ExistsBefore(roomID, oldest)
	if err != nil {
		return nil, err
	}
	page.HasNext = hasNext
	return page, nil
}

// GetByID returns one message to a (possibly former) room participant
func (s *ChatMessageService) GetByID(messageID, callerID string) (*domain.MessageResponse, error) {
	msg, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, common.ErrMessageNotFound
	}

	membership, err := s.participantRepo.FindAny(msg.ChatRoomID, callerID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, common.ErrNotParticipant
	}

	return s.toResponse(msg)
}

// authorizeSender checks room existence and active membership, returning
// the sender's profile for the response payload. Membership is checked at
// every send, never cached across calls.
func (s *ChatMessageService) authorizeSender(roomID, senderID string) (*domain.User, error) {
	room, err := s.roomRepo.FindByID(roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, common.ErrRoomNotFound
	}

	membership, err := s.participantRepo.FindActive(roomID, senderID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, common.ErrNotParticipant
	}

	sender, err := s.userRepo.FindByID(senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, common.ErrUserNotFound
	}
	return sender, nil
}

// validateParent enforces one-level reply threading within the room
func (s *ChatMessageService) validateParent(roomID string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	parent, err := s.messageRepo.FindByID(*parentID)
	if err != nil {
		return err
	}
	if parent == nil || parent.ChatRoomID != roomID || parent.ParentMessageID != nil {
		return common.ErrInvalidParent
	}
	return nil
}

func (s *ChatMessageService) persistAndBroadcast(msg *domain.ChatMessage, sender *domain.User) (*domain.MessageResponse, error) {
	if err := s.messageRepo.Create(msg); err != nil {
		return nil, err
	}
	if err := s.participantRepo.TouchLastRead(msg.ChatRoomID, msg.SenderID, msg.CreatedAt); err != nil {
		return nil, err
	}

	resp := &domain.MessageResponse{
		ID:         msg.ID,
		ChatRoomID: msg.ChatRoomID,
		Sender: domain.SenderResponse{
			SenderID:     sender.ID,
			SenderName:   sender.DisplayName,
			SenderAvatar: sender.AvatarURL,
		},
		MessageType:     msg.MessageType,
		TextContent:     msg.TextContent,
		Metadata:        msg.Metadata,
		ParentMessageID: msg.ParentMessageID,
		CreatedAt:       msg.CreatedAt,
	}
	s.hub.Publish(domain.RoomTopic(msg.ChatRoomID), &domain.SocketEvent{
		Type:    domain.EventMessageNew,
		Payload: resp,
	})
	return resp, nil
}

// toResponse builds a response for a bare message row, resolving the
// sender profile separately
func (s *ChatMessageService) toResponse(msg *domain.ChatMessage) (*domain.MessageResponse, error) {
	sender, err := s.userRepo.FindByID(msg.SenderID)
	if err != nil {
		return nil, err
	}
	resp := &domain.MessageResponse{
		ID:              msg.ID,
		ChatRoomID:      msg.ChatRoomID,
		MessageType:     msg.MessageType,
		TextContent:     msg.TextContent,
		Metadata:        msg.Metadata,
		ParentMessageID: msg.ParentMessageID,
		IsEdited:        msg.IsEdited(),
		CreatedAt:       msg.CreatedAt,
	}
	resp.Sender.SenderID = msg.SenderID
	if sender != nil {
		resp.Sender.SenderName = sender.DisplayName
		resp.Sender.SenderAvatar = sender.AvatarURL
	}
	return resp, nil
}

func rowToResponse(row *repository.MessageWithSender) *domain.MessageResponse {
	return &domain.MessageResponse{
		ID:         row.ID,
		ChatRoomID: row.ChatRoomID,
		Sender: domain.SenderResponse{
			SenderID:     row.SenderID,
			SenderName:   row.SenderName,
			SenderAvatar: row.SenderAvatar,
		},
		MessageType:     row.MessageType,
		TextContent:     row.TextContent,
		Metadata:        row.Metadata,
		ParentMessageID: row.ParentMessageID,
		IsEdited:        row.IsEdited(),
		CreatedAt:       row.CreatedAt,
	}
}
