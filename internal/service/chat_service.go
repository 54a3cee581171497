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
	ErrChatNotFound   = errors.New("chat not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrSelfChat       = errors.New("cannot start a chat with yourself")
	ErrChatExists     = errors.New("chat already exists")
	ErrNotParticipant = errors.New("not a participant of this chat")
	ErrNotGroupChat   = errors.New("not a group chat")
	ErrNotGroupAdmin  = errors.New("only the group admin can perform this action")
	ErrAlreadyMember  = errors.New("user is already a participant")
	ErrGroupTooSmall  = errors.New("a group chat needs at least two other participants")
)

type ChatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
}

func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository) *ChatService {
	return &ChatService{chatRepo: chatRepo, userRepo: userRepo}
}

func (s *ChatService) CreateOneOnOne(ctx context.Context, userID, receiverID uuid.UUID) (*domain.Chat, error) {
	if userID == receiverID {
		return nil, ErrSelfChat
	}

	receiver, err := s.userRepo.GetByID(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, ErrUserNotFound
	}

	existing, err := s.chatRepo.GetOneOnOne(ctx, userID, receiverID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrChatExists
	}

	now := time.Now()
	chat := &domain.Chat{
		ID:             uuid.New(),
		IsGroup:        false,
		ParticipantIDs: []uuid.UUID{userID, receiverID},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.chatRepo.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}
	return chat, nil
}

type CreateGroupInput struct {
	Name       string      `json:"name"`
	CoverImage *string     `json:"cover_image,omitempty"`
	MemberIDs  []uuid.UUID `json:"member_ids"`
}

func (s *ChatService) CreateGroup(ctx context.Context, adminID uuid.UUID, input CreateGroupInput) (*domain.Chat, error) {
	// Dedup members and make sure the admin is a participant.
	seen := map[uuid.UUID]struct{}{adminID: {}}
	participants := []uuid.UUID{adminID}
	for _, id := range input.MemberIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		participants = append(participants, id)
	}
	if len(participants) < 3 {
		return nil, ErrGroupTooSmall
	}

	for _, id := range participants[1:] {
		u, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, ErrUserNotFound
		}
	}

	now := time.Now()
	admin := adminID
	chat := &domain.Chat{
		ID:             uuid.New(),
		IsGroup:        true,
		Name:           &input.Name,
		CoverImage:     input.CoverImage,
		AdminID:        &admin,
		ParticipantIDs: participants,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.chatRepo.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("creating group chat: %w", err)
	}
	return chat, nil
}

func (s *ChatService) AddMember(ctx context.Context, actorID, chatID, userID uuid.UUID) error {
	chat, err := s.requireGroupAdmin(ctx, actorID, chatID)
	if err != nil {
		return err
	}
	if chat.HasParticipant(userID) {
		return ErrAlreadyMember
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}

	return s.chatRepo.AddParticipant(ctx, chatID, userID)
}

// RemoveMember drops the participant; the membership row carries the unread
// counter, so the counter entry goes with it.
func (s *ChatService) RemoveMember(ctx context.Context, actorID, chatID, userID uuid.UUID) error {
	chat, err := s.requireGroupAdmin(ctx, actorID, chatID)
	if err != nil {
		return err
	}
	if !chat.HasParticipant(userID) {
		return ErrNotParticipant
	}
	return s.chatRepo.RemoveParticipant(ctx, chatID, userID)
}

func (s *ChatService) requireGroupAdmin(ctx context.Context, actorID, chatID uuid.UUID) (*domain.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	if !chat.IsGroup {
		return nil, ErrNotGroupChat
	}
	if chat.AdminID == nil || *chat.AdminID != actorID {
		return nil, ErrNotGroupAdmin
	}
	return chat, nil
}

func (s *ChatService) ListMine(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error) {
	chats, err := s.chatRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if chats == nil {
		chats = []domain.Chat{}
	}
	return chats, nil
}

// MarkActive durably resets the caller's unread counter for the chat to 0.
// Idempotent. Participation is deliberately not verified here, matching the
// behavior this service replaces; the room join happens transport-side.
func (s *ChatService) MarkActive(ctx context.Context, userID, chatID uuid.UUID) error {
	return s.chatRepo.ResetUnread(ctx, chatID, userID)
}

// Participant verifies chat membership for callers outside this package.
func (s *ChatService) Participant(ctx context.Context, userID, chatID uuid.UUID) (*domain.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	if !chat.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return chat, nil
}
