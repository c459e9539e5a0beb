package service

import (
	"github.com/octguy/learniverse-chat/internal/common"
	"github.com/octguy/learniverse-chat/internal/domain"
	"github.com/octguy/learniverse-chat/internal/repository"
)

// ParticipantService handles group room membership changes
type ParticipantService struct {
	roomRepo        repository.ChatRoomRepository
	participantRepo repository.ChatParticipantRepository
	userRepo        repository.UserRepository
}

// NewParticipantService creates a new ParticipantService
func NewParticipantService(
	roomRepo repository.ChatRoomRepository,
	participantRepo repository.ChatParticipantRepository,
	userRepo repository.UserRepository,
) *ParticipantService {
	return &ParticipantService{
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
	}
}

// AddParticipants adds users to a group room. Every target is resolved and
// partitioned against the room's full membership history before anything is
// written: currently-active targets reject the whole call, previously-left
// targets are restored, the rest are inserted fresh.
func (s *ParticipantService) AddParticipants(roomID, callerID string, req *domain.AddParticipantsRequest) (*domain.AddParticipantsResponse, error) {
	room, err := s.roomRepo.FindByID(roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, common.ErrRoomNotFound
	}
	if !room.IsGroupChat {
		return nil, common.ErrNotGroupChat
	}

	caller, err := s.participantRepo.FindActive(roomID, callerID)
	if err != nil {
		return nil, err
	}
	if caller == nil {
		return nil, common.ErrNotParticipant
	}

	targetIDs := dedupe(req.ParticipantIDs)
	for _, id := range targetIDs {
		if id == callerID {
			return nil, common.ErrCannotTargetSelf
		}
	}

	users, err := s.userRepo.FindByIDs(targetIDs)
	if err != nil {
		return nil, err
	}
	if len(users) != len(targetIDs) {
		return nil, common.ErrParticipantsNotFound
	}

	states, err := s.participantRepo.FindStates(roomID)
	if err != nil {
		return nil, err
	}
	stateByID := make(map[string]*repository.ParticipantState, len(states))
	for i := range states {
		stateByID[states[i].ParticipantID] = &states[i]
	}

	var toRestore, toInsert []string
	for _, id := range targetIDs {
		state, known := stateByID[id]
		switch {
		case !known:
			toInsert = append(toInsert, id)
		case state.DeletedAt != nil:
			toRestore = append(toRestore, id)
		default:
			return nil, common.ErrAlreadyParticipant
		}
	}

	rows := make([]*domain.ChatParticipant, 0, len(toInsert))
	for _, id := range toInsert {
		rows = append(rows, &domain.ChatParticipant{
			ChatRoomID:    roomID,
			ParticipantID: id,
			ChatRole:      domain.ChatRoleMember,
			InvitedBy:     &callerID,
		})
	}
	if err := s.participantRepo.RestoreAndCreate(roomID, callerID, toRestore, rows); err != nil {
		// A concurrent add slipped in between the partition read and the
		// write. The row exists now either way, so restore whatever is
		// soft-deleted and report success.
		if !repository.IsDuplicateKey(err) {
			return nil, err
		}
		if err := s.participantRepo.Restore(roomID, callerID, targetIDs); err != nil {
			return nil, err
		}
	}

	return &domain.AddParticipantsResponse{
		ChatRoomID:   roomID,
		Participants: targetIDs,
	}, nil
}

// RemoveParticipant soft-deletes a member's row. Group rooms only; the
// caller must be ADMIN, cannot target themselves (that is leave) and
// cannot remove another ADMIN. Message history keeps the sender reference.
func (s *ParticipantService) RemoveParticipant(roomID, callerID, targetID string) error {
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
	if callerID == targetID {
		return common.ErrCannotTargetSelf
	}

	caller, err := s.participantRepo.FindActive(roomID, callerID)
	if err != nil {
		return err
	}
	if caller == nil {
		return common.ErrNotParticipant
	}
	if caller.ChatRole != domain.ChatRoleAdmin {
		return common.ErrNotRoomAdmin
	}

	target, err := s.participantRepo.FindActive(roomID, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return common.ErrParticipantNotFound
	}
	if target.ChatRole == domain.ChatRoleAdmin {
		return common.ErrCannotRemoveAdmin
	}

	return s.participantRepo.SoftDelete(roomID, targetID)
}
