package service

import "github.com/octguy/learniverse-chat/internal/domain"

// Broadcaster pushes one event to every subscriber of a topic. Satisfied
// by ws.Hub. Delivery is best-effort: a publish never fails the durable
// mutation that produced the event.
type Broadcaster interface {
	Publish(topic string, event *domain.SocketEvent)
}
