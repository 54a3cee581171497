package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ripplechat/ripple/internal/domain"
)

// Classify derives the notification kind for one receiver from the message
// alone. Precedence, highest first: mention+attachment, mention, reacted,
// replied, attachment, plain new_message. The reacted branch only matches
// when invoked from the reaction path, since a freshly sent message carries
// no reactions. Replied does not verify the receiver authored the parent
// message.
func Classify(msg *domain.Message, receiverID uuid.UUID) domain.NotificationKind {
	mentioned := msg.Mentions(receiverID)
	hasAttachment := msg.IsAttachment || len(msg.Attachments) > 0

	switch {
	case mentioned && hasAttachment:
		return domain.NotifMentionWithAttachment
	case mentioned:
		return domain.NotifMention
	case msg.ReactedBy(receiverID):
		return domain.NotifReacted
	case msg.ReplyTo != nil:
		return domain.NotifReplied
	case hasAttachment:
		return domain.NotifAttachment
	default:
		return domain.NotifNewMessage
	}
}

var messageContent = map[domain.NotificationKind]string{
	domain.NotifMentionWithAttachment: "%s mentioned you with an attachment.",
	domain.NotifMention:               "%s mentioned you in a message.",
	domain.NotifReacted:               "%s reacted to your message.",
	domain.NotifReplied:               "%s replied to your message.",
	domain.NotifAttachment:            "%s sent you an attachment.",
	domain.NotifNewMessage:            "%s sent you a new message.",
}

// BuildMessageNotification produces the persisted record for a message-borne
// notification. The sender profile must be attached to the message.
func BuildMessageNotification(msg *domain.Message, kind domain.NotificationKind, receiverID uuid.UUID) *domain.Notification {
	return &domain.Notification{
		ID:         uuid.New(),
		SenderID:   msg.SenderID,
		ReceiverID: receiverID,
		Kind:       kind,
		Content:    fmt.Sprintf(messageContent[kind], msg.Sender.Username),
		RefID:      msg.ID,
		RefKind:    domain.RefMessage,
		CreatedAt:  time.Now(),
	}
}

var friendRequestContent = map[domain.NotificationKind]string{
	domain.NotifFriendRequest:         "%s sent you a friend request.",
	domain.NotifFriendRequestAccepted: "%s accepted your friend request.",
	domain.NotifFriendRequestRejected: "%s rejected your friend request.",
}

// BuildFriendRequestNotification produces the record for a friend-request
// lifecycle event. sender is the acting party (requester, accepter or
// rejecter) whose name appears in the content.
func BuildFriendRequestNotification(req *domain.FriendRequest, kind domain.NotificationKind, sender domain.Profile, receiverID uuid.UUID) *domain.Notification {
	return &domain.Notification{
		ID:         uuid.New(),
		SenderID:   sender.ID,
		ReceiverID: receiverID,
		Kind:       kind,
		Content:    fmt.Sprintf(friendRequestContent[kind], sender.Username),
		RefID:      req.ID,
		RefKind:    domain.RefFriendRequest,
		CreatedAt:  time.Now(),
	}
}

// BuildReactionNotification notifies a message author that someone reacted.
func BuildReactionNotification(msg *domain.Message, reactor domain.Profile) *domain.Notification {
	return &domain.Notification{
		ID:         uuid.New(),
		SenderID:   reactor.ID,
		ReceiverID: msg.SenderID,
		Kind:       domain.NotifReacted,
		Content:    fmt.Sprintf(messageContent[domain.NotifReacted], reactor.Username),
		RefID:      msg.ID,
		RefKind:    domain.RefMessage,
		CreatedAt:  time.Now(),
	}
}
