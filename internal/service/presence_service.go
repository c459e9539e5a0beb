package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/octguy/learniverse-chat/internal/common"
	"github.com/octguy/learniverse-chat/internal/domain"
	"github.com/octguy/learniverse-chat/internal/repository"
)

// PresenceService owns the ephemeral online/typing state. Every write
// carries its own expiry, so a client that stops refreshing silently
// drops to offline without any disconnect handler firing. Write failures
// degrade to "appears offline" and are never surfaced to callers.
type PresenceService interface {
	SetOnline(ctx context.Context, userID, username string)
	SetOffline(ctx context.Context, userID, username string)
	// Heartbeat renews the online TTL. It cannot resurrect an expired
	// key; the client recovers with the next SetOnline.
	Heartbeat(ctx context.Context, userID string)
	GetStatus(ctx context.Context, userID string) (*domain.UserStatusResponse, error)
	SetTyping(ctx context.Context, roomID, userID, username string, isTyping bool)
}

// presenceStore is the minimal expiring key-value surface the service
// needs from Redis
type presenceStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns (value, found, error)
	Get(ctx context.Context, key string) (string, bool, error)
	Del(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type redisPresenceStore struct {
	rdb *redis.Client
}

func (s *redisPresenceStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *redisPresenceStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *redisPresenceStore) Del(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *redisPresenceStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.rdb.Expire(ctx, key, ttl).Err()
}

type presenceService struct {
	store     presenceStore
	userRepo  repository.UserRepository
	hub       Broadcaster
	onlineTTL time.Duration
	typingTTL time.Duration
	now       func() time.Time
}

// NewPresenceService creates a Redis-backed PresenceService
func NewPresenceService(rdb *redis.Client, userRepo repository.UserRepository, hub Broadcaster, onlineTTL, typingTTL time.Duration) PresenceService {
	return newPresenceService(&redisPresenceStore{rdb: rdb}, userRepo, hub, onlineTTL, typingTTL)
}

func newPresenceService(store presenceStore, userRepo repository.UserRepository, hub Broadcaster, onlineTTL, typingTTL time.Duration) *presenceService {
	return &presenceService{
		store:     store,
		userRepo:  userRepo,
		hub:       hub,
		onlineTTL: onlineTTL,
		typingTTL: typingTTL,
		now:       time.Now,
	}
}

func onlineKey(userID string) string {
	return "chat:online:" + userID
}

func typingKey(roomID, userID string) string {
	return fmt.Sprintf("chat:typing:%s:%s", roomID, userID)
}

// SetOnline marks the user online for one TTL window and announces the
// transition on the user's presence topic
func (p *presenceService) SetOnline(ctx context.Context, userID, username string) {
	if err := p.store.Set(ctx, onlineKey(userID), username, p.onlineTTL); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to write online presence")
		return
	}
	p.hub.Publish(domain.UserPresenceTopic(userID), &domain.SocketEvent{
		Type: domain.EventPresence,
		Payload: &domain.PresenceEvent{
			UserID:   userID,
			Username: username,
			IsOnline: true,
		},
	})
}

// SetOffline drops the online key, persists last_seen_at and announces
// the transition. TTL expiry takes the silent path instead.
func (p *presenceService) SetOffline(ctx context.Context, userID, username string) {
	if err := p.store.Del(ctx, onlineKey(userID)); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to clear online presence")
	}

	now := p.now()
	if err := p.userRepo.UpdateLastSeen(userID, now); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to persist last seen")
	}

	p.hub.Publish(domain.UserPresenceTopic(userID), &domain.SocketEvent{
		Type: domain.EventPresence,
		Payload: &domain.PresenceEvent{
			UserID:     userID,
			Username:   username,
			IsOnline:   false,
			LastSeenAt: &now,
		},
	})
}

// Heartbeat renews the online TTL without touching the value
func (p *presenceService) Heartbeat(ctx context.Context, userID string) {
	if err := p.store.Expire(ctx, onlineKey(userID), p.onlineTTL); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to refresh online presence")
	}
}

// GetStatus reports online from the live key, falling back to the durable
// last_seen_at for offline users
func (p *presenceService) GetStatus(ctx context.Context, userID string) (*domain.UserStatusResponse, error) {
	username, online, err := p.store.Get(ctx, onlineKey(userID))
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to read online presence")
		online = false
	}
	if online {
		return &domain.UserStatusResponse{
			UserID:   userID,
			Username: username,
			IsOnline: true,
		}, nil
	}

	user, err := p.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.ErrUserNotFound
	}
	return &domain.UserStatusResponse{
		UserID:     userID,
		Username:   user.Username,
		IsOnline:   false,
		LastSeenAt: user.LastSeenAt,
	}, nil
}

// SetTyping writes or clears the short-lived typing key and relays the
// indicator to the room's typing topic. A crashed client's indicator
// expires on its own.
func (p *presenceService) SetTyping(ctx context.Context, roomID, userID, username string, isTyping bool) {
	var err error
	if isTyping {
		err = p.store.Set(ctx, typingKey(roomID, userID), username, p.typingTTL)
	} else {
		err = p.store.Del(ctx, typingKey(roomID, userID))
	}
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("room_id", roomID).Msg("failed to write typing presence")
		return
	}

	p.hub.Publish(domain.RoomTypingTopic(roomID), &domain.SocketEvent{
		Type: domain.EventTyping,
		Payload: &domain.TypingEvent{
			ChatRoomID: roomID,
			UserID:     userID,
			Username:   username,
			IsTyping:   isTyping,
		},
	})
}
