package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotifNewMessage            NotificationKind = "new_message"
	NotifMention               NotificationKind = "mention"
	NotifMentionWithAttachment NotificationKind = "mention_with_attachment"
	NotifReacted               NotificationKind = "reacted"
	NotifReplied               NotificationKind = "replied"
	NotifAttachment            NotificationKind = "attachment"
	NotifFriendRequest         NotificationKind = "friend_request"
	NotifFriendRequestAccepted NotificationKind = "friend_request_accepted"
	NotifFriendRequestRejected NotificationKind = "friend_request_rejected"
	NotifApp                   NotificationKind = "app_notification"
)

// Reference discriminators for the originating entity.
const (
	RefMessage       = "message"
	RefFriendRequest = "friend_request"
)

type Notification struct {
	ID         uuid.UUID        `json:"id"`
	SenderID   uuid.UUID        `json:"sender_id"`
	ReceiverID uuid.UUID        `json:"receiver_id"`
	Kind       NotificationKind `json:"kind"`
	Content    string           `json:"content"`
	RefID      uuid.UUID        `json:"ref_id"`
	RefKind    string           `json:"ref_kind"`
	IsRead     bool             `json:"is_read"`
	CreatedAt  time.Time        `json:"created_at"`
	// Joined fields
	Sender *Profile `json:"sender,omitempty"`
}
