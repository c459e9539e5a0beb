package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/octguy/learniverse-chat/internal/domain"
)

const redisPubSubChannel = "chat:events"

// Gatekeeper answers authorization questions the hub itself must not
// know about. The hub is a pure relay: room membership, typing fan-out
// and presence refresh all live behind this interface.
type Gatekeeper interface {
	// CanSubscribe reports whether the user may receive events on the
	// topic. userID is empty for unauthenticated connections, which must
	// fail closed for any non-public topic.
	CanSubscribe(userID, topic string) bool
	OnTyping(userID, roomID string, isTyping bool)
	OnHeartbeat(userID string)
}

type subscription struct {
	client *Client
	topic  string
}

type topicEvent struct {
	Topic string              `json:"topic"`
	Event *domain.SocketEvent `json:"event"`
	// Origin identifies the publishing instance. Redis pub/sub echoes a
	// message back to its publisher; the relay skips its own echoes so
	// local subscribers see each event once.
	Origin string `json:"origin,omitempty"`
}

// Hub tracks WebSocket clients and the topics each one follows, and
// fans events out to topic subscribers on this instance. Events are
// also relayed through a Redis channel so subscribers connected to
// other instances receive them.
type Hub struct {
	// topic -> subscribed clients
	topics map[string]map[*Client]bool
	// client -> its topics, for cleanup on disconnect
	clients map[*Client]map[string]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *subscription
	unsubscribe chan *subscription
	broadcast   chan *topicEvent

	mu          sync.RWMutex
	gate        Gatekeeper
	redisClient *redis.Client
	instanceID  string
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewHub creates a new Hub
func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		topics:      make(map[string]map[*Client]bool),
		clients:     make(map[*Client]map[string]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *subscription, 64),
		unsubscribe: make(chan *subscription, 64),
		broadcast:   make(chan *topicEvent, 256),
		redisClient: redisClient,
		instanceID:  uuid.New().String(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetGatekeeper installs the authorization hook. Must be called before
// Run; the hub panics on inbound frames without one.
func (h *Hub) SetGatekeeper(g Gatekeeper) {
	h.gate = g
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	// Start Redis subscriber if Redis is available
	if h.redisClient != nil {
		go h.subscribeRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = make(map[string]bool)
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if topics, ok := h.clients[client]; ok {
				for topic := range topics {
					h.dropFromTopic(client, topic)
				}
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case sub := <-h.subscribe:
			h.mu.Lock()
			if topics, ok := h.clients[sub.client]; ok {
				topics[sub.topic] = true
				if h.topics[sub.topic] == nil {
					h.topics[sub.topic] = make(map[*Client]bool)
				}
				h.topics[sub.topic][sub.client] = true
			}
			h.mu.Unlock()

		case sub := <-h.unsubscribe:
			h.mu.Lock()
			if topics, ok := h.clients[sub.client]; ok {
				delete(topics, sub.topic)
				h.dropFromTopic(sub.client, sub.topic)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			if clients, ok := h.topics[msg.Topic]; ok {
				data, err := json.Marshal(msg.Event)
				if err == nil {
					for client := range clients {
						select {
						case client.send <- data:
						default:
							// Slow consumer: drop it rather than stall
							// the fan-out.
							go client.conn.Close()
						}
					}
				}
			}
			h.mu.RUnlock()

		case <-h.ctx.Done():
			return
		}
	}
}

// dropFromTopic removes a client from one topic set; caller holds mu.
func (h *Hub) dropFromTopic(client *Client, topic string) {
	if clients, ok := h.topics[topic]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Publish delivers an event to every subscriber of the topic, on this
// instance and via Redis on every other instance.
func (h *Hub) Publish(topic string, event *domain.SocketEvent) {
	// Local broadcast
	h.broadcast <- &topicEvent{Topic: topic, Event: event}

	// Publish to Redis for multi-instance support
	if h.redisClient != nil {
		data, err := json.Marshal(&topicEvent{Topic: topic, Event: event, Origin: h.instanceID})
		if err == nil {
			if err := h.redisClient.Publish(h.ctx, redisPubSubChannel, data).Err(); err != nil {
				log.Warn().Err(err).Str("topic", topic).Msg("failed to relay event to redis")
			}
		}
	}
}

// subscribeRedis listens for events published by other instances
func (h *Hub) subscribeRedis() {
	pubsub := h.redisClient.Subscribe(h.ctx, redisPubSubChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var te topicEvent
			if err := json.Unmarshal([]byte(msg.Payload), &te); err == nil && te.Origin != h.instanceID {
				// Only local broadcast (don't re-publish to Redis)
				h.broadcast <- &te
			}
		case <-h.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.cancel()
}
