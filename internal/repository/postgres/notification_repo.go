package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ripplechat/ripple/internal/domain"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (id, sender_id, receiver_id, kind, content,
			ref_id, ref_kind, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query,
		n.ID, n.SenderID, n.ReceiverID, n.Kind, n.Content,
		n.RefID, n.RefKind, n.IsRead, n.CreatedAt,
	)
	return err
}

func (r *NotificationRepo) ListByReceiver(ctx context.Context, receiverID uuid.UUID) ([]domain.Notification, error) {
	query := `
		SELECT n.id, n.sender_id, n.receiver_id, n.kind, n.content,
			n.ref_id, n.ref_kind, n.is_read, n.created_at,
			u.id, u.username, u.avatar_url
		FROM notifications n
		JOIN users u ON u.id = n.sender_id
		WHERE n.receiver_id = $1
		ORDER BY n.created_at DESC`
	rows, err := r.pool.Query(ctx, query, receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var sender domain.Profile
		if err := rows.Scan(
			&n.ID, &n.SenderID, &n.ReceiverID, &n.Kind, &n.Content,
			&n.RefID, &n.RefKind, &n.IsRead, &n.CreatedAt,
			&sender.ID, &sender.Username, &sender.AvatarURL,
		); err != nil {
			return nil, err
		}
		n.Sender = &sender
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id, receiverID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE id = $1 AND receiver_id = $2`,
		id, receiverID)
	return err
}
