package ws

import (
	"log"

	"github.com/google/uuid"
	"github.com/ripplechat/ripple/internal/domain"
)

// HubNotifier adapts the hub to the service layer's Notifier interface.
// Services push through this seam without knowing about connections.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

// MessagePending echoes a not-yet-persisted message to the sender's own
// connections so the UI can render it immediately.
func (n *HubNotifier) MessagePending(senderID uuid.UUID, msg *domain.Message) {
	n.toUser(senderID, EventMessageReceived, MessagePayload{Message: msg, Pending: true})
}

// MessageReceived delivers a message on one participant's personal channel.
func (n *HubNotifier) MessageReceived(userID uuid.UUID, msg *domain.Message) {
	n.toUser(userID, EventMessageReceived, MessagePayload{Message: msg})
}

// MessageReceivedRoom broadcasts a message to everyone viewing the chat.
func (n *HubNotifier) MessageReceivedRoom(chatID uuid.UUID, msg *domain.Message) {
	n.toRoom(chatID, EventMessageReceived, MessagePayload{Message: msg})
}

// UnreadMessage tells an online-but-elsewhere participant that a chat
// gained an unread message.
func (n *HubNotifier) UnreadMessage(receiverID, chatID uuid.UUID, msg *domain.Message) {
	n.toUser(receiverID, EventUnreadMessage, UnreadMessagePayload{ChatID: chatID, Message: msg})
}

// MessageAttachmentsUpdated rebroadcasts a message once its attachments
// have been uploaded.
func (n *HubNotifier) MessageAttachmentsUpdated(chatID uuid.UUID, msg *domain.Message) {
	n.toRoom(chatID, EventAttachmentUpdated, MessagePayload{Message: msg})
}

// MessageDeleted announces deletions. A delete-for-everyone goes to the
// whole room; a delete-for-self goes only to the deleter's connections.
func (n *HubNotifier) MessageDeleted(chatID, deletedBy uuid.UUID, messageIDs []uuid.UUID, forAll bool) {
	payload := MessageDeletedPayload{
		ChatID:          chatID,
		MessageIDs:      messageIDs,
		DeletedBy:       deletedBy,
		IsDeletedForAll: forAll,
	}
	if forAll {
		n.toRoom(chatID, EventMessageDeleted, payload)
		return
	}
	n.toUser(deletedBy, EventMessageDeleted, payload)
}

// MessageReacted broadcasts a fresh reaction to the chat room.
func (n *HubNotifier) MessageReacted(chatID uuid.UUID, msg *domain.Message, reaction domain.Reaction) {
	n.toRoom(chatID, EventMessageReacted, MessageReactedPayload{ChatID: chatID, Message: msg, Reaction: reaction})
}

// Notification pushes a notification record to the receiver's connections.
func (n *HubNotifier) Notification(userID uuid.UUID, notif *domain.Notification) {
	n.toUser(userID, EventNotification, notif)
}

func (n *HubNotifier) toUser(userID uuid.UUID, eventType string, payload any) {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		log.Printf("ws notifier: building %s: %v", eventType, err)
		return
	}
	n.hub.ToUser(userID, event)
}

func (n *HubNotifier) toRoom(chatID uuid.UUID, eventType string, payload any) {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		log.Printf("ws notifier: building %s: %v", eventType, err)
		return
	}
	n.hub.ToRoom(chatID, event, nil)
}
