package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/ripplechat/ripple/internal/domain"
)

// Event types - client to server
const (
	EventJoinChat          = "joinChat"
	EventLeaveChat         = "leaveChat"
	EventCurrentActiveChat = "currentActiveChat"
	EventTyping            = "typing"
	EventStopTyping        = "stopTyping"
	EventMessageSend       = "messageSent"
	EventMessageReact      = "messageReact"
)

// Event types - server to client
const (
	EventConnected             = "connected"
	EventRoomCreated           = "roomCreated"
	EventMessageReceived       = "messageReceived"
	EventUnreadMessage         = "unreadMessage"
	EventAttachmentUpdated     = "updatedMessageWithAttachment"
	EventMessageDeleted        = "deleteMessageForEveryoneOrSelf"
	EventMessageReacted        = "messageReacted"
	EventNotification          = "notification"
	EventSocketError           = "socketError"
)

// Event is the envelope for all traffic on the live channel.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- client to server payloads ---

type ChatPayload struct {
	ChatID uuid.UUID `json:"chat_id"`
}

type ActiveChatPayload struct {
	ChatID uuid.UUID `json:"chat_id"`
	User   struct {
		ID       uuid.UUID `json:"id"`
		Username string    `json:"username"`
	} `json:"user"`
}

type ReactPayload struct {
	ChatID    uuid.UUID `json:"chat_id"`
	MessageID uuid.UUID `json:"message_id"`
	Emoji     string    `json:"emoji"`
}

// --- server to client payloads ---

type ConnectedPayload struct {
	Message string `json:"message"`
}

type RoomCreatedPayload struct {
	ChatID   uuid.UUID `json:"chat_id"`
	Username string    `json:"username"`
}

type TypingPayload struct {
	ChatID uuid.UUID `json:"chat_id"`
	UserID uuid.UUID `json:"user_id"`
}

type MessagePayload struct {
	Message *domain.Message `json:"message"`
	Pending bool            `json:"pending,omitempty"`
}

type UnreadMessagePayload struct {
	ChatID  uuid.UUID       `json:"chat_id"`
	Message *domain.Message `json:"message"`
}

type MessageDeletedPayload struct {
	ChatID          uuid.UUID   `json:"chat_id"`
	MessageIDs      []uuid.UUID `json:"message_ids"`
	DeletedBy       uuid.UUID   `json:"deleted_by"`
	IsDeletedForAll bool        `json:"is_deleted_for_all"`
}

type MessageReactedPayload struct {
	ChatID   uuid.UUID       `json:"chat_id"`
	Message  *domain.Message `json:"message"`
	Reaction domain.Reaction `json:"reaction"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NewEvent creates a server-to-client event with the current timestamp.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
