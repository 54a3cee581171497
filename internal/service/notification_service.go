package service

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/ripplechat/ripple/internal/domain"
	"github.com/ripplechat/ripple/internal/repository"
)

type NotificationService struct {
	notifRepo repository.NotificationRepository
	notifier  Notifier
}

func NewNotificationService(notifRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifRepo: notifRepo}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *NotificationService) SetNotifier(n Notifier) {
	s.notifier = n
}

// NotifyMessage classifies the message for the receiver, pushes the live
// notification and persists the record. The live push stands even when the
// durable write fails; that failure is only logged.
func (s *NotificationService) NotifyMessage(ctx context.Context, msg *domain.Message, receiverID uuid.UUID) {
	kind := Classify(msg, receiverID)
	s.dispatch(ctx, BuildMessageNotification(msg, kind, receiverID))
}

// NotifyReaction notifies the message author about a new reaction.
func (s *NotificationService) NotifyReaction(ctx context.Context, msg *domain.Message, reactor domain.Profile) {
	s.dispatch(ctx, BuildReactionNotification(msg, reactor))
}

// NotifyFriendRequest emits and persists a friend-request lifecycle
// notification.
func (s *NotificationService) NotifyFriendRequest(ctx context.Context, req *domain.FriendRequest, kind domain.NotificationKind, sender domain.Profile, receiverID uuid.UUID) {
	s.dispatch(ctx, BuildFriendRequestNotification(req, kind, sender, receiverID))
}

func (s *NotificationService) dispatch(ctx context.Context, n *domain.Notification) {
	if s.notifier != nil {
		s.notifier.Notification(n.ReceiverID, n)
	}
	if err := s.notifRepo.Create(ctx, n); err != nil {
		log.Printf("notification: persisting %s for %s: %v", n.Kind, n.ReceiverID, err)
	}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	notifications, err := s.notifRepo.ListByReceiver(ctx, userID)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.notifRepo.MarkRead(ctx, id, userID)
}
