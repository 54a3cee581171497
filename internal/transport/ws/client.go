package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ripplechat/ripple/internal/domain"
	"github.com/ripplechat/ripple/internal/service"
	"nhooyr.io/websocket"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBufSize  = 256
)

// Client is one live connection. A user with several tabs or devices has
// several Clients; room membership is tracked per Client.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	user *domain.User

	// rooms the connection has joined. Owned by the hub, guarded by hub.mu.
	rooms map[uuid.UUID]struct{}

	send chan []byte
	done chan struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, user *domain.User) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		user:  user,
		rooms: make(map[uuid.UUID]struct{}),
		send:  make(chan []byte, sendBufSize),
		done:  make(chan struct{}),
	}
}

// trySend queues data for the write pump, dropping it when the buffer is
// full (a slow consumer must not stall the hub).
func (c *Client) trySend(data []byte) {
	select {
	case c.send <- data:
	default:
		log.Printf("ws: dropping event for user %s, send buffer full", c.user.ID)
	}
}

// ReadPump reads events off the wire and dispatches them until the
// connection dies. Runs on its own goroutine per connection.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		close(c.done)
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				log.Printf("ws: read error for user %s: %v", c.user.ID, err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			c.sendError("invalid event")
			continue
		}
		c.handleEvent(ctx, &event)
	}
}

// WritePump drains the send buffer onto the wire and keeps the connection
// alive with pings.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		case <-ticker.C:
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(wctx)
			cancel()
			if err != nil {
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) handleEvent(ctx context.Context, event *Event) {
	switch event.Type {
	case EventJoinChat:
		var p ChatPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("invalid payload")
			return
		}
		c.hub.JoinRoom(c, p.ChatID)

	case EventLeaveChat:
		var p ChatPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("invalid payload")
			return
		}
		c.hub.LeaveRoom(c, p.ChatID)

	case EventCurrentActiveChat:
		var p ActiveChatPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			// Malformed active-chat payloads are dropped without a reply.
			log.Printf("ws: user %s: bad %s payload: %v", c.user.ID, event.Type, err)
			return
		}
		if p.ChatID == uuid.Nil || p.User.ID == uuid.Nil {
			log.Printf("ws: user %s: %s without chat or user id", c.user.ID, event.Type)
			return
		}
		c.hub.JoinRoomAll(c.user.ID, p.ChatID)
		if out, err := NewEvent(EventRoomCreated, RoomCreatedPayload{ChatID: p.ChatID, Username: p.User.Username}); err == nil {
			c.hub.ToRoom(p.ChatID, out, nil)
		}
		if err := c.hub.chats.MarkActive(ctx, p.User.ID, p.ChatID); err != nil {
			log.Printf("ws: user %s: reset unread for chat %s: %v", c.user.ID, p.ChatID, err)
		}

	case EventTyping, EventStopTyping:
		var p ChatPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("invalid payload")
			return
		}
		if out, err := NewEvent(event.Type, TypingPayload{ChatID: p.ChatID, UserID: c.user.ID}); err == nil {
			c.hub.ToRoom(p.ChatID, out, c)
		}

	case EventMessageSend:
		var p service.SendMessageInput
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("invalid payload")
			return
		}
		if _, err := c.hub.messages.Send(ctx, c.user, p); err != nil {
			log.Printf("ws: user %s: send message: %v", c.user.ID, err)
			c.sendError(err.Error())
		}

	case EventMessageReact:
		var p ReactPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("invalid payload")
			return
		}
		if err := c.hub.messages.React(ctx, c.user, p.ChatID, p.MessageID, p.Emoji); err != nil {
			log.Printf("ws: user %s: react: %v", c.user.ID, err)
			c.sendError(err.Error())
		}

	default:
		c.sendError("unknown event type: " + event.Type)
	}
}

// sendError delivers a socketError event to this connection only.
func (c *Client) sendError(message string) {
	event, err := NewEvent(EventSocketError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	c.trySend(data)
}
