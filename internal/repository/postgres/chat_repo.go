package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ripplechat/ripple/internal/domain"
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) Create(ctx context.Context, chat *domain.Chat) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO chats (id, is_group, name, cover_image, admin_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.Exec(ctx, query,
		chat.ID, chat.IsGroup, chat.Name, chat.CoverImage, chat.AdminID,
		chat.CreatedAt, chat.UpdatedAt,
	); err != nil {
		return err
	}

	for _, userID := range chat.ParticipantIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2)`,
			chat.ID, userID,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ChatRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	query := `
		SELECT c.id, c.is_group, c.name, c.cover_image, c.admin_id, c.created_at, c.updated_at
		FROM chats c WHERE c.id = $1`
	var c domain.Chat
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.IsGroup, &c.Name, &c.CoverImage, &c.AdminID, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.ParticipantIDs, err = r.ParticipantIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ChatRepo) GetOneOnOne(ctx context.Context, userA, userB uuid.UUID) (*domain.Chat, error) {
	query := `
		SELECT c.id
		FROM chats c
		JOIN chat_participants pa ON pa.chat_id = c.id AND pa.user_id = $1
		JOIN chat_participants pb ON pb.chat_id = c.id AND pb.user_id = $2
		WHERE c.is_group = false
		LIMIT 1`
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query, userA, userB).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *ChatRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error) {
	query := `
		SELECT c.id, c.is_group, c.name, c.cover_image, c.admin_id, c.created_at, c.updated_at,
			cp.unread_count
		FROM chats c
		JOIN chat_participants cp ON cp.chat_id = c.id AND cp.user_id = $1
		ORDER BY c.updated_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []domain.Chat
	for rows.Next() {
		var c domain.Chat
		if err := rows.Scan(
			&c.ID, &c.IsGroup, &c.Name, &c.CoverImage, &c.AdminID,
			&c.CreatedAt, &c.UpdatedAt, &c.UnreadCount,
		); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range chats {
		if err := r.loadParticipants(ctx, &chats[i]); err != nil {
			return nil, err
		}
	}
	return chats, nil
}

func (r *ChatRepo) loadParticipants(ctx context.Context, chat *domain.Chat) error {
	query := `
		SELECT u.id, u.username, u.avatar_url
		FROM chat_participants cp
		JOIN users u ON u.id = cp.user_id
		WHERE cp.chat_id = $1
		ORDER BY cp.joined_at`
	rows, err := r.pool.Query(ctx, query, chat.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	chat.ParticipantIDs = chat.ParticipantIDs[:0]
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.AvatarURL); err != nil {
			return err
		}
		chat.Participants = append(chat.Participants, p)
		chat.ParticipantIDs = append(chat.ParticipantIDs, p.ID)
	}
	return rows.Err()
}

func (r *ChatRepo) ParticipantIDs(ctx context.Context, chatID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM chat_participants WHERE chat_id = $1 ORDER BY joined_at`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ChatRepo) AddParticipant(ctx context.Context, chatID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		chatID, userID)
	return err
}

// RemoveParticipant deletes the membership row; the unread counter lives on
// that row, so dropping a participant drops their counter with it.
func (r *ChatRepo) RemoveParticipant(ctx context.Context, chatID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM chat_participants WHERE chat_id = $1 AND user_id = $2`,
		chatID, userID)
	return err
}

func (r *ChatRepo) ResetUnread(ctx context.Context, chatID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE chat_participants SET unread_count = 0 WHERE chat_id = $1 AND user_id = $2`,
		chatID, userID)
	return err
}

// IncrementUnread bumps every listed user's counter in one statement; the
// increment happens store-side so concurrent sends into the same chat never
// lose updates.
func (r *ChatRepo) IncrementUnread(ctx context.Context, chatID uuid.UUID, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE chat_participants SET unread_count = unread_count + 1
		 WHERE chat_id = $1 AND user_id = ANY($2)`,
		chatID, userIDs)
	return err
}
