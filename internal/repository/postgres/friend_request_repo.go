package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ripplechat/ripple/internal/domain"
)

type FriendRequestRepo struct {
	pool *pgxpool.Pool
}

func NewFriendRequestRepo(pool *pgxpool.Pool) *FriendRequestRepo {
	return &FriendRequestRepo{pool: pool}
}

func (r *FriendRequestRepo) Create(ctx context.Context, req *domain.FriendRequest) error {
	query := `
		INSERT INTO friend_requests (id, from_id, to_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query,
		req.ID, req.FromID, req.ToID, req.Status, req.CreatedAt, req.UpdatedAt)
	return err
}

func (r *FriendRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.FriendRequest, error) {
	query := `
		SELECT id, from_id, to_id, status, created_at, updated_at
		FROM friend_requests WHERE id = $1`
	var req domain.FriendRequest
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID, &req.FromID, &req.ToID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *FriendRequestRepo) GetPending(ctx context.Context, fromID, toID uuid.UUID) (*domain.FriendRequest, error) {
	query := `
		SELECT id, from_id, to_id, status, created_at, updated_at
		FROM friend_requests
		WHERE from_id = $1 AND to_id = $2 AND status = 'pending'`
	var req domain.FriendRequest
	err := r.pool.QueryRow(ctx, query, fromID, toID).Scan(
		&req.ID, &req.FromID, &req.ToID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *FriendRequestRepo) ListIncoming(ctx context.Context, userID uuid.UUID) ([]domain.FriendRequest, error) {
	query := `
		SELECT fr.id, fr.from_id, fr.to_id, fr.status, fr.created_at, fr.updated_at,
			u.id, u.username, u.avatar_url
		FROM friend_requests fr
		JOIN users u ON u.id = fr.from_id
		WHERE fr.to_id = $1 AND fr.status = 'pending'
		ORDER BY fr.created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.FriendRequest
	for rows.Next() {
		var req domain.FriendRequest
		var from domain.Profile
		if err := rows.Scan(
			&req.ID, &req.FromID, &req.ToID, &req.Status, &req.CreatedAt, &req.UpdatedAt,
			&from.ID, &from.Username, &from.AvatarURL,
		); err != nil {
			return nil, err
		}
		req.From = &from
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *FriendRequestRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE friend_requests SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id)
	return err
}

// Accept performs the whole acceptance in one transaction: status flip,
// friendship rows both ways, and the 1:1 chat with both participants.
func (r *FriendRequestRepo) Accept(ctx context.Context, req *domain.FriendRequest) (*domain.Chat, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	if _, err := tx.Exec(ctx,
		`UPDATE friend_requests SET status = 'accepted', updated_at = $1 WHERE id = $2`,
		now, req.ID,
	); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO friendships (user_id, friend_id) VALUES ($1, $2), ($2, $1)
		 ON CONFLICT DO NOTHING`,
		req.FromID, req.ToID,
	); err != nil {
		return nil, err
	}

	chat := &domain.Chat{
		ID:             uuid.New(),
		IsGroup:        false,
		ParticipantIDs: []uuid.UUID{req.FromID, req.ToID},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO chats (id, is_group, created_at, updated_at) VALUES ($1, false, $2, $2)`,
		chat.ID, now,
	); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2), ($1, $3)`,
		chat.ID, req.FromID, req.ToID,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return chat, nil
}
