package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ripplechat/ripple/internal/domain"
	"github.com/ripplechat/ripple/internal/repository"
)

// Notifier broadcasts real-time events to connected clients.
type Notifier interface {
	// MessagePending is the optimistic echo to the sender before the
	// durable write completes.
	MessagePending(receiverID uuid.UUID, msg *domain.Message)
	MessageReceived(receiverID uuid.UUID, msg *domain.Message)
	MessageReceivedRoom(chatID uuid.UUID, msg *domain.Message)
	UnreadMessage(receiverID, chatID uuid.UUID, msg *domain.Message)
	MessageAttachmentsUpdated(chatID uuid.UUID, msg *domain.Message)
	MessageDeleted(chatID, deletedBy uuid.UUID, messageIDs []uuid.UUID, forAll bool)
	MessageReacted(chatID uuid.UUID, msg *domain.Message, reaction domain.Reaction)
	Notification(receiverID uuid.UUID, n *domain.Notification)
}

// Presence answers who currently has an open view of a chat and who is
// connected at all. Backed by the live connection registry, never by
// durable state.
type Presence interface {
	// MembersOf returns the identity ids represented by at least one
	// connection in the chat's room.
	MembersOf(chatID uuid.UUID) map[uuid.UUID]struct{}
	IsOnline(userID uuid.UUID) bool
}

// DeliveryService fans a persisted message out to the chat's participants,
// choosing per recipient between a live room broadcast, a personal-channel
// push with an unread marker, or a durable counter increment only.
type DeliveryService struct {
	chatRepo      repository.ChatRepository
	presence      Presence
	notifier      Notifier
	notifications *NotificationService
}

func NewDeliveryService(chatRepo repository.ChatRepository, presence Presence, notifier Notifier, notifications *NotificationService) *DeliveryService {
	return &DeliveryService{
		chatRepo:      chatRepo,
		presence:      presence,
		notifier:      notifier,
		notifications: notifications,
	}
}

// Deliver implements the fan-out:
//
//  1. When every participant is viewing the chat, a single room broadcast
//     suffices; no counters move.
//  2. Present participants otherwise get the message on their personal
//     channel, which also covers stale room connections.
//  3. Absent participants get one bulk unread increment; the ones with a
//     live connection additionally get an unread push and a classified
//     notification. Fully offline participants get the counter only (no
//     notification record is synthesized on this path).
//
// The sender is excluded from fan-out entirely. Presence is tracked per
// connection, so an identity with one connection in the room and another
// outside can receive both the room broadcast and a personal push; clients
// deduplicate by message id.
func (s *DeliveryService) Deliver(ctx context.Context, msg *domain.Message) error {
	participants, err := s.chatRepo.ParticipantIDs(ctx, msg.ChatID)
	if err != nil {
		return fmt.Errorf("resolving participants: %w", err)
	}
	present := s.presence.MembersOf(msg.ChatID)

	allPresent := true
	for _, id := range participants {
		if _, ok := present[id]; !ok {
			allPresent = false
			break
		}
	}
	if allPresent {
		s.notifier.MessageReceivedRoom(msg.ChatID, msg)
		return nil
	}

	var absent []uuid.UUID
	for _, id := range participants {
		if id == msg.SenderID {
			continue
		}
		if _, ok := present[id]; ok {
			s.notifier.MessageReceived(id, msg)
		} else {
			absent = append(absent, id)
		}
	}

	// One bulk write for all absent recipients; not transactional with the
	// pushes below, but increments are commutative.
	if err := s.chatRepo.IncrementUnread(ctx, msg.ChatID, absent); err != nil {
		return fmt.Errorf("incrementing unread counters: %w", err)
	}

	for _, id := range absent {
		if !s.presence.IsOnline(id) {
			continue
		}
		s.notifier.UnreadMessage(id, msg.ChatID, msg)
		s.notifications.NotifyMessage(ctx, msg, id)
	}
	return nil
}
