package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ripplechat/ripple/internal/domain"
	"github.com/ripplechat/ripple/internal/repository"
	"github.com/ripplechat/ripple/internal/upload"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyMessage     = errors.New("message needs content or attachments")
	ErrMessageNotFound  = errors.New("message not found")
	ErrNotMessageSender = errors.New("only the message sender can perform this action")
)

type MessageService struct {
	messageRepo   repository.MessageRepository
	chatRepo      repository.ChatRepository
	uploader      upload.Uploader
	notifier      Notifier
	delivery      *DeliveryService
	notifications *NotificationService
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	chatRepo repository.ChatRepository,
	uploader upload.Uploader,
	delivery *DeliveryService,
	notifications *NotificationService,
) *MessageService {
	return &MessageService{
		messageRepo:   messageRepo,
		chatRepo:      chatRepo,
		uploader:      uploader,
		delivery:      delivery,
		notifications: notifications,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

type AttachmentInput struct {
	Blob     string `json:"blob"`
	FileName string `json:"file_name"`
}

type SendMessageInput struct {
	ChatID       uuid.UUID         `json:"chat_id"`
	Content      string            `json:"content"`
	ReplyTo      *uuid.UUID        `json:"reply_to,omitempty"`
	MentionedIDs []uuid.UUID       `json:"mentioned_ids,omitempty"`
	Attachments  []AttachmentInput `json:"attachments,omitempty"`
}

// Send runs the message pipeline: validate, mint the id, echo optimistically
// to the sender, persist, fan out, and kick off attachment resolution out of
// band. The returned message is the persisted (pre-attachment) view.
func (s *MessageService) Send(ctx context.Context, sender *domain.User, input SendMessageInput) (*domain.Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" && len(input.Attachments) == 0 {
		return nil, ErrEmptyMessage
	}
	if err := s.requireParticipant(ctx, sender.ID, input.ChatID); err != nil {
		return nil, err
	}

	now := time.Now()
	profile := sender.Profile()
	msg := &domain.Message{
		ID:           uuid.New(),
		ChatID:       input.ChatID,
		SenderID:     sender.ID,
		Attachments:  []domain.Attachment{},
		Reactions:    []domain.Reaction{},
		ReplyTo:      input.ReplyTo,
		MentionedIDs: input.MentionedIDs,
		IsAttachment: len(input.Attachments) > 0,
		CreatedAt:    now,
		UpdatedAt:    now,
		Sender:       &profile,
	}
	if content != "" {
		msg.Content = &content
	}

	// Optimistic echo on the sender's personal channel before the durable
	// write; the client replaces it on confirmation, keyed by id.
	if s.notifier != nil {
		s.notifier.MessagePending(sender.ID, msg)
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("persisting message: %w", err)
	}

	if err := s.delivery.Deliver(ctx, msg); err != nil {
		// The message is durable at this point; delivery problems must not
		// fail the send.
		log.Printf("message %s: delivery: %v", msg.ID, err)
	}

	if len(input.Attachments) > 0 {
		go s.resolveAttachments(msg, input.Attachments)
	}
	return msg, nil
}

// resolveAttachments uploads the blobs concurrently, updates the stored
// message and rebroadcasts it to the chat room. Runs detached from the send
// request; failures are logged per item and the failed items are dropped.
// There is no retry and no deadline.
func (s *MessageService) resolveAttachments(msg *domain.Message, inputs []AttachmentInput) {
	ctx := context.Background()
	results := make([]*domain.Attachment, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		g.Go(func() error {
			data, err := upload.DecodeBlob(in.Blob)
			if err != nil {
				log.Printf("message %s: decoding attachment %d: %v", msg.ID, i, err)
				return nil
			}
			key := fmt.Sprintf("messages/%s/%d", msg.ID, i)
			att, err := s.uploader.Upload(gctx, data, key, in.FileName)
			if err != nil {
				log.Printf("message %s: uploading attachment %d: %v", msg.ID, i, err)
				return nil
			}
			results[i] = &att
			return nil
		})
	}
	g.Wait()

	var resolved []domain.Attachment
	for _, att := range results {
		if att != nil {
			resolved = append(resolved, *att)
		}
	}
	if len(resolved) == 0 {
		log.Printf("message %s: no attachments resolved", msg.ID)
		return
	}

	if err := s.messageRepo.SetAttachments(ctx, msg.ID, resolved); err != nil {
		log.Printf("message %s: storing attachments: %v", msg.ID, err)
		return
	}
	updated, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil || updated == nil {
		log.Printf("message %s: reloading after attachment update: %v", msg.ID, err)
		return
	}
	if s.notifier != nil {
		s.notifier.MessageAttachmentsUpdated(msg.ChatID, updated)
	}
}

// History returns chat messages visible to the caller, chronological, with
// cursor pagination.
func (s *MessageService) History(ctx context.Context, userID, chatID uuid.UUID, before *uuid.UUID, limit int) ([]domain.Message, error) {
	if err := s.requireParticipant(ctx, userID, chatID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	messages, err := s.messageRepo.ListByChat(ctx, chatID, userID, before, limit)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// React appends a reaction, rebroadcasts it to the room and notifies the
// message author (unless they reacted to their own message).
func (s *MessageService) React(ctx context.Context, reactor *domain.User, chatID, messageID uuid.UUID, emoji string) error {
	if err := s.requireParticipant(ctx, reactor.ID, chatID); err != nil {
		return err
	}

	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}

	reaction := domain.Reaction{Emoji: emoji, UserID: reactor.ID}
	if err := s.messageRepo.AddReaction(ctx, messageID, reaction); err != nil {
		return fmt.Errorf("adding reaction: %w", err)
	}

	updated, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.MessageReacted(chatID, updated, reaction)
	}
	if msg.SenderID != reactor.ID {
		s.notifications.NotifyReaction(ctx, updated, reactor.Profile())
	}
	return nil
}

// DeleteForEveryone marks the messages deleted for all viewers. Only the
// sender of every listed message may do this.
func (s *MessageService) DeleteForEveryone(ctx context.Context, userID, chatID uuid.UUID, messageIDs []uuid.UUID) error {
	for _, id := range messageIDs {
		msg, err := s.messageRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if msg == nil {
			return ErrMessageNotFound
		}
		if msg.SenderID != userID {
			return ErrNotMessageSender
		}
	}

	if err := s.messageRepo.MarkDeletedForAll(ctx, messageIDs); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.MessageDeleted(chatID, userID, messageIDs, true)
	}
	return nil
}

// DeleteForSelf hides the messages from the caller only.
func (s *MessageService) DeleteForSelf(ctx context.Context, userID, chatID uuid.UUID, messageIDs []uuid.UUID) error {
	if err := s.requireParticipant(ctx, userID, chatID); err != nil {
		return err
	}

	if err := s.messageRepo.MarkDeletedFor(ctx, messageIDs, userID); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.MessageDeleted(chatID, userID, messageIDs, false)
	}
	return nil
}

// ClearChat removes the chat's message history. The chat itself survives.
func (s *MessageService) ClearChat(ctx context.Context, userID, chatID uuid.UUID) error {
	if err := s.requireParticipant(ctx, userID, chatID); err != nil {
		return err
	}
	return s.messageRepo.ClearChat(ctx, chatID)
}

func (s *MessageService) requireParticipant(ctx context.Context, userID, chatID uuid.UUID) error {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if chat == nil {
		return ErrChatNotFound
	}
	if !chat.HasParticipant(userID) {
		return ErrNotParticipant
	}
	return nil
}
