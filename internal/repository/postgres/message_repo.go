package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ripplechat/ripple/internal/domain"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

const messageColumns = `
	m.id, m.chat_id, m.sender_id, m.content, m.attachments, m.reactions,
	m.reply_to, m.deleted_by, m.is_deleted_for_all, m.mentioned_ids,
	m.is_attachment, m.created_at, m.updated_at,
	u.id, u.username, u.avatar_url`

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var m domain.Message
	var sender domain.Profile
	err := row.Scan(
		&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.Attachments, &m.Reactions,
		&m.ReplyTo, &m.DeletedBy, &m.IsDeletedForAll, &m.MentionedIDs,
		&m.IsAttachment, &m.CreatedAt, &m.UpdatedAt,
		&sender.ID, &sender.Username, &sender.AvatarURL,
	)
	if err != nil {
		return nil, err
	}
	m.Sender = &sender
	return &m, nil
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, chat_id, sender_id, content, attachments, reactions,
			reply_to, mentioned_ids, is_attachment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.ChatID, msg.SenderID, msg.Content, msg.Attachments, msg.Reactions,
		msg.ReplyTo, msg.MentionedIDs, msg.IsAttachment, msg.CreatedAt, msg.UpdatedAt,
	)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.id = $1`
	msg, err := scanMessage(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return msg, err
}

func (r *MessageRepo) ListByChat(ctx context.Context, chatID, viewer uuid.UUID, before *uuid.UUID, limit int) ([]domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.chat_id = $1
			AND m.is_deleted_for_all = false
			AND NOT ($2 = ANY(m.deleted_by))`
	args := []any{chatID, viewer}

	if before != nil {
		query += `
			AND m.created_at < (SELECT created_at FROM messages WHERE id = $3)`
		args = append(args, *before)
	}
	query += fmt.Sprintf(`
		ORDER BY m.created_at DESC
		LIMIT %d`, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query returns newest first; flip to chronological.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *MessageRepo) SetAttachments(ctx context.Context, id uuid.UUID, attachments []domain.Attachment) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET attachments = $1, updated_at = $2 WHERE id = $3`,
		attachments, time.Now(), id)
	return err
}

// AddReaction appends store-side so concurrent reacts do not overwrite each
// other; duplicates from the same user are allowed.
func (r *MessageRepo) AddReaction(ctx context.Context, id uuid.UUID, reaction domain.Reaction) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET reactions = reactions || $1::jsonb, updated_at = $2 WHERE id = $3`,
		[]domain.Reaction{reaction}, time.Now(), id)
	return err
}

func (r *MessageRepo) MarkDeletedFor(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET deleted_by = array_append(deleted_by, $1), updated_at = $2
		 WHERE id = ANY($3) AND NOT ($1 = ANY(deleted_by))`,
		userID, time.Now(), ids)
	return err
}

func (r *MessageRepo) MarkDeletedForAll(ctx context.Context, ids []uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET is_deleted_for_all = true, updated_at = $1 WHERE id = ANY($2)`,
		time.Now(), ids)
	return err
}

func (r *MessageRepo) ClearChat(ctx context.Context, chatID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE chat_id = $1`, chatID)
	return err
}
