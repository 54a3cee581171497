package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ripplechat/ripple/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]domain.Profile, error)
	// ListNonFriends returns users other than userID and their existing
	// friends, optionally filtered by a username search term.
	ListNonFriends(ctx context.Context, userID uuid.UUID, search string) ([]domain.Profile, error)
}

type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error)
	GetOneOnOne(ctx context.Context, userA, userB uuid.UUID) (*domain.Chat, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error)
	ParticipantIDs(ctx context.Context, chatID uuid.UUID) ([]uuid.UUID, error)
	AddParticipant(ctx context.Context, chatID, userID uuid.UUID) error
	// RemoveParticipant drops the membership row, and with it the user's
	// unread counter for the chat.
	RemoveParticipant(ctx context.Context, chatID, userID uuid.UUID) error
	// ResetUnread atomically sets the chat's unread counter for one user to 0.
	ResetUnread(ctx context.Context, chatID, userID uuid.UUID) error
	// IncrementUnread atomically adds 1 to the chat's unread counter for
	// every listed user in a single bulk write.
	IncrementUnread(ctx context.Context, chatID uuid.UUID, userIDs []uuid.UUID) error
}

type MessageRepository interface {
	// Create persists the message under the id already set on it (the
	// pipeline mints the id before any I/O).
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// ListByChat returns messages visible to viewer, newest-first cursor
	// pagination via before/limit, returned in chronological order.
	ListByChat(ctx context.Context, chatID, viewer uuid.UUID, before *uuid.UUID, limit int) ([]domain.Message, error)
	SetAttachments(ctx context.Context, id uuid.UUID, attachments []domain.Attachment) error
	AddReaction(ctx context.Context, id uuid.UUID, reaction domain.Reaction) error
	MarkDeletedFor(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) error
	MarkDeletedForAll(ctx context.Context, ids []uuid.UUID) error
	ClearChat(ctx context.Context, chatID uuid.UUID) error
}

type FriendRequestRepository interface {
	Create(ctx context.Context, req *domain.FriendRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FriendRequest, error)
	GetPending(ctx context.Context, fromID, toID uuid.UUID) (*domain.FriendRequest, error)
	ListIncoming(ctx context.Context, userID uuid.UUID) ([]domain.FriendRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// Accept flips the request to accepted, records the friendship both
	// ways and creates the 1:1 chat, all in one transaction. Returns the
	// created chat.
	Accept(ctx context.Context, req *domain.FriendRequest) (*domain.Chat, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByReceiver(ctx context.Context, receiverID uuid.UUID) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, receiverID uuid.UUID) error
}
