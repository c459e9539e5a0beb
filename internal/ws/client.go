package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Inbound frame actions
const (
	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"
	actionTyping      = "typing"
	actionHeartbeat   = "heartbeat"
)

// clientFrame is a single inbound frame. Everything except topic and
// typing fields is ignored.
type clientFrame struct {
	Action     string `json:"action"`
	Topic      string `json:"topic,omitempty"`
	ChatRoomID string `json:"chat_room_id,omitempty"`
	IsTyping   bool   `json:"is_typing,omitempty"`
}

// Client represents a single WebSocket connection. userID is empty for
// unauthenticated connections; those may still subscribe to topics the
// Gatekeeper considers public.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
	}
}

// ReadPump reads inbound frames and dispatches them (handles pong/close)
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Debug().Str("user_id", c.userID).Msg("dropping malformed ws frame")
			continue
		}
		c.dispatch(&frame)
	}
}

// dispatch routes one inbound frame. Unknown actions and unauthorized
// subscriptions are dropped silently.
func (c *Client) dispatch(frame *clientFrame) {
	switch frame.Action {
	case actionSubscribe:
		if frame.Topic == "" || !c.hub.gate.CanSubscribe(c.userID, frame.Topic) {
			return
		}
		c.hub.subscribe <- &subscription{client: c, topic: frame.Topic}

	case actionUnsubscribe:
		if frame.Topic == "" {
			return
		}
		c.hub.unsubscribe <- &subscription{client: c, topic: frame.Topic}

	case actionTyping:
		if c.userID == "" || frame.ChatRoomID == "" {
			return
		}
		c.hub.gate.OnTyping(c.userID, frame.ChatRoomID, frame.IsTyping)

	case actionHeartbeat:
		if c.userID == "" {
			return
		}
		c.hub.gate.OnHeartbeat(c.userID)
	}
}

// WritePump sends events to the WebSocket
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message) //nolint:errcheck
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
