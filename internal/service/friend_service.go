package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ripplechat/ripple/internal/domain"
	"github.com/ripplechat/ripple/internal/repository"
)

var (
	ErrSelfFriendRequest   = errors.New("cannot send a friend request to yourself")
	ErrRequestExists       = errors.New("a pending request already exists")
	ErrRequestNotFound     = errors.New("friend request not found")
	ErrNotRequestRecipient = errors.New("only the request recipient can perform this action")
	ErrRequestSettled      = errors.New("friend request already accepted or rejected")
)

type FriendService struct {
	requestRepo   repository.FriendRequestRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
}

func NewFriendService(requestRepo repository.FriendRequestRepository, userRepo repository.UserRepository, notifications *NotificationService) *FriendService {
	return &FriendService{
		requestRepo:   requestRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

func (s *FriendService) Send(ctx context.Context, from *domain.User, toID uuid.UUID) (*domain.FriendRequest, error) {
	if from.ID == toID {
		return nil, ErrSelfFriendRequest
	}

	to, err := s.userRepo.GetByID(ctx, toID)
	if err != nil {
		return nil, err
	}
	if to == nil {
		return nil, ErrUserNotFound
	}

	existing, err := s.requestRepo.GetPending(ctx, from.ID, toID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrRequestExists
	}

	now := time.Now()
	req := &domain.FriendRequest{
		ID:        uuid.New(),
		FromID:    from.ID,
		ToID:      toID,
		Status:    domain.FriendRequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("creating friend request: %w", err)
	}

	s.notifications.NotifyFriendRequest(ctx, req, domain.NotifFriendRequest, from.Profile(), toID)
	return req, nil
}

// Accept moves a pending request to accepted. The friendship rows and the
// 1:1 chat are created in the same transaction as the status flip; the
// requester is then notified.
func (s *FriendService) Accept(ctx context.Context, accepter *domain.User, requestID uuid.UUID) (*domain.Chat, error) {
	req, err := s.pendingFor(ctx, accepter.ID, requestID)
	if err != nil {
		return nil, err
	}

	chat, err := s.requestRepo.Accept(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("accepting friend request: %w", err)
	}

	s.notifications.NotifyFriendRequest(ctx, req, domain.NotifFriendRequestAccepted, accepter.Profile(), req.FromID)
	return chat, nil
}

// Reject is terminal; the request stays as a rejected record.
func (s *FriendService) Reject(ctx context.Context, rejecter *domain.User, requestID uuid.UUID) error {
	req, err := s.pendingFor(ctx, rejecter.ID, requestID)
	if err != nil {
		return err
	}

	if err := s.requestRepo.UpdateStatus(ctx, req.ID, domain.FriendRequestRejected); err != nil {
		return fmt.Errorf("rejecting friend request: %w", err)
	}

	s.notifications.NotifyFriendRequest(ctx, req, domain.NotifFriendRequestRejected, rejecter.Profile(), req.FromID)
	return nil
}

func (s *FriendService) pendingFor(ctx context.Context, userID, requestID uuid.UUID) (*domain.FriendRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if req.ToID != userID {
		return nil, ErrNotRequestRecipient
	}
	if req.Status != domain.FriendRequestPending {
		return nil, ErrRequestSettled
	}
	return req, nil
}

func (s *FriendService) ListIncoming(ctx context.Context, userID uuid.UUID) ([]domain.FriendRequest, error) {
	reqs, err := s.requestRepo.ListIncoming(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []domain.FriendRequest{}
	}
	return reqs, nil
}

func (s *FriendService) ListFriends(ctx context.Context, userID uuid.UUID) ([]domain.Profile, error) {
	friends, err := s.userRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	if friends == nil {
		friends = []domain.Profile{}
	}
	return friends, nil
}
