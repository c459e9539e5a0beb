package service

import (
	"context"
	"strings"

	"github.com/octguy/learniverse-chat/internal/common"
	"github.com/octguy/learniverse-chat/internal/repository"
)

// GateService answers the gateway's authorization questions and carries
// the client-origin presence signals (typing, heartbeat) into the
// presence service after a membership check. Implements ws.Gatekeeper.
type GateService struct {
	participantRepo repository.ChatParticipantRepository
	userRepo        repository.UserRepository
	presence        PresenceService
}

// NewGateService creates a new GateService
func NewGateService(participantRepo repository.ChatParticipantRepository, userRepo repository.UserRepository, presence PresenceService) *GateService {
	return &GateService{
		participantRepo: participantRepo,
		userRepo:        userRepo,
		presence:        presence,
	}
}

// CanSubscribe authorizes a topic subscription. Room topics require
// active membership at subscribe time; user presence topics require any
// authenticated identity. Unknown topic shapes fail closed.
func (g *GateService) CanSubscribe(userID, topic string) bool {
	if userID == "" {
		return false
	}

	parts := strings.Split(topic, ":")
	switch parts[0] {
	case "room":
		if len(parts) == 3 && parts[2] != "typing" && parts[2] != "receipts" {
			return false
		}
		if len(parts) != 2 && len(parts) != 3 {
			return false
		}
		membership, err := g.participantRepo.FindActive(parts[1], userID)
		return err == nil && membership != nil
	case "user":
		return len(parts) == 3 && parts[2] == "presence"
	}
	return false
}

// Typing validates membership and forwards the indicator to the presence
// service. Used by the HTTP typing endpoint.
func (g *GateService) Typing(ctx context.Context, roomID, userID, username string, isTyping bool) error {
	membership, err := g.participantRepo.FindActive(roomID, userID)
	if err != nil {
		return err
	}
	if membership == nil {
		return common.ErrNotParticipant
	}
	g.presence.SetTyping(ctx, roomID, userID, username, isTyping)
	return nil
}

// OnTyping is the socket-frame variant of Typing: failures are dropped,
// a relay never reports errors back over the socket
func (g *GateService) OnTyping(userID, roomID string, isTyping bool) {
	user, err := g.userRepo.FindByID(userID)
	if err != nil || user == nil {
		return
	}
	_ = g.Typing(context.Background(), roomID, userID, user.Username, isTyping)
}

// OnHeartbeat renews the caller's online TTL
func (g *GateService) OnHeartbeat(userID string) {
	g.presence.Heartbeat(context.Background(), userID)
}
