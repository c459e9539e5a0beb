package service

import (
	"time"

	"github.com/octguy/learniverse-chat/internal/common"
	"github.com/octguy/learniverse-chat/internal/domain"
	"github.com/octguy/learniverse-chat/internal/repository"
)

// ReceiptService handles per-(message, user) delivery and read state
type ReceiptService struct {
	receiptRepo     repository.MessageReceiptRepository
	messageRepo     repository.ChatMessageRepository
	participantRepo repository.ChatParticipantRepository
	hub             Broadcaster
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(
	receiptRepo repository.MessageReceiptRepository,
	messageRepo repository.ChatMessageRepository,
	participantRepo repository.ChatParticipantRepository,
	hub Broadcaster,
) *ReceiptService {
	return &ReceiptService{
		receiptRepo:     receiptRepo,
		messageRepo:     messageRepo,
		participantRepo: participantRepo,
		hub:             hub,
	}
}

// MarkDelivered records a delivery ack. Idempotent: an existing receipt,
// DELIVERED or READ, is left untouched. The sender's own message is a
// silent no-op.
func (s *ReceiptService) MarkDelivered(messageID, userID string) error {
	msg, err := s.authorizeReceipt(messageID, userID)
	if err != nil {
		return err
	}
	if msg == nil {
		return nil
	}

	if err := s.receiptRepo.MarkDelivered(messageID, userID); err != nil {
		return err
	}
	s.publishReceipt(msg.ChatRoomID, userID, domain.ReceiptStatusDelivered, []string{messageID}, nil)
	return nil
}

// MarkRead records a read. Skipping DELIVERED is legal; a repeat call
// never moves read_at.
func (s *ReceiptService) MarkRead(messageID, userID string) error {
	msg, err := s.authorizeReceipt(messageID, userID)
	if err != nil {
		return err
	}
	if msg == nil {
		return nil
	}

	now := time.Now()
	if err := s.receiptRepo.MarkRead([]string{messageID}, userID, now); err != nil {
		return err
	}
	if err := s.participantRepo.TouchLastRead(msg.ChatRoomID, userID, now); err != nil {
		return err
	}
	s.publishReceipt(msg.ChatRoomID, userID, domain.ReceiptStatusRead, []string{messageID}, &now)
	return nil
}

// MarkManyRead records reads for a batch of messages, grouped per room.
// The user's own messages are skipped; any unknown message fails the call
// before anything is written.
func (s *ReceiptService) MarkManyRead(userID string, messageIDs []string) error {
	byRoom := make(map[string][]string)
	for _, id := range dedupe(messageIDs) {
		msg, err := s.messageRepo.FindByID(id)
		if err != nil {
			return err
		}
		if msg == nil {
			return common.ErrMessageNotFound
		}
		if msg.SenderID == userID {
			continue
		}
		byRoom[msg.ChatRoomID] = append(byRoom[msg.ChatRoomID], id)
	}

	now := time.Now()
	for roomID, ids := range byRoom {
		membership, err := s.participantRepo.FindAny(roomID, userID)
		if err != nil {
			return err
		}
		if membership == nil {
			return common.ErrNotParticipant
		}

		if err := s.receiptRepo.MarkRead(ids, userID, now); err != nil {
			return err
		}
		if err := s.participantRepo.TouchLastRead(roomID, userID, now); err != nil {
			return err
		}
		s.publishReceipt(roomID, userID, domain.ReceiptStatusRead, ids, &now)
	}
	return nil
}

// MarkAllRead reads every unread message of the room in one batch. Safe
// to call redundantly.
func (s *ReceiptService) MarkAllRead(roomID, userID string) error {
	membership, err := s.participantRepo.FindActive(roomID, userID)
	if err != nil {
		return err
	}
	if membership == nil {
		return common.ErrNotParticipant
	}

	ids, err := s.receiptRepo.UnreadMessageIDs(roomID, userID)
	if err != nil {
		return err
	}

	now := time.Now()
	if len(ids) > 0 {
		if err := s.receiptRepo.MarkRead(ids, userID, now); err != nil {
			return err
		}
	}
	if err := s.participantRepo.TouchLastRead(roomID, userID, now); err != nil {
		return err
	}
	if len(ids) > 0 {
		s.publishReceipt(roomID, userID, domain.ReceiptStatusRead, ids, &now)
	}
	return nil
}

// UnreadCount returns the caller's unread message count for the room
func (s *ReceiptService) UnreadCount(roomID, userID string) (*domain.UnreadResponse, error) {
	if err := s.requireMembership(roomID, userID); err != nil {
		return nil, err
	}
	count, err := s.receiptRepo.CountUnread(roomID, userID)
	if err != nil {
		return nil, err
	}
	return &domain.UnreadResponse{ChatRoomID: roomID, Count: count}, nil
}

// UnreadMessages returns the identity list backing UnreadCount, for
// client-side reconciliation
func (s *ReceiptService) UnreadMessages(roomID, userID string) (*domain.UnreadResponse, error) {
	if err := s.requireMembership(roomID, userID); err != nil {
		return nil, err
	}
	ids, err := s.receiptRepo.UnreadMessageIDs(roomID, userID)
	if err != nil {
		return nil, err
	}
	return &domain.UnreadResponse{
		ChatRoomID: roomID,
		Count:      int64(len(ids)),
		MessageIDs: ids,
	}, nil
}

// ListReceipts returns every receipt of one message with reader identity
func (s *ReceiptService) ListReceipts(messageID, callerID string) ([]domain.ReceiptResponse, error) {
	msg, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, common.ErrMessageNotFound
	}
	if err := s.requireMembership(msg.ChatRoomID, callerID); err != nil {
		return nil, err
	}

	rows, err := s.receiptRepo.FindByMessage(messageID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ReceiptResponse, 0, len(rows))
	for _, row := range rows {
		name := row.DisplayName
		if name == "" {
			name = row.Username
		}
		out = append(out, domain.ReceiptResponse{
			MessageID: row.MessageID,
			UserID:    row.UserID,
			Username:  name,
			Status:    row.Status,
			ReadAt:    row.ReadAt,
		})
	}
	return out, nil
}

// authorizeReceipt resolves the message and checks membership. A nil
// message with nil error means the user authored it and no receipt is
// needed.
func (s *ReceiptService) authorizeReceipt(messageID, userID string) (*domain.ChatMessage, error) {
	msg, err := s.messageRepo.FindByID(messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, common.ErrMessageNotFound
	}
	if msg.SenderID == userID {
		return nil, nil
	}
	if err := s.requireMembership(msg.ChatRoomID, userID); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *ReceiptService) requireMembership(roomID, userID string) error {
	membership, err := s.participantRepo.FindAny(roomID, userID)
	if err != nil {
		return err
	}
	if membership == nil {
		return common.ErrNotParticipant
	}
	return nil
}

func (s *ReceiptService) publishReceipt(roomID, userID, status string, messageIDs []string, readAt *time.Time) {
	s.hub.Publish(domain.RoomReceiptsTopic(roomID), &domain.SocketEvent{
		Type: domain.EventReceipt,
		Payload: &domain.ReceiptEvent{
			ChatRoomID: roomID,
			UserID:     userID,
			Status:     status,
			MessageIDs: messageIDs,
			ReadAt:     readAt,
		},
	})
}
