package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ripplechat/ripple/internal/config"
)

func Connect(cfg *config.Config) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	pool, err := pgxpool.New(context.Background(), dsn)

	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

// Migrate creates the schema when it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id uuid PRIMARY KEY,
	username text NOT NULL UNIQUE,
	email text NOT NULL UNIQUE,
	password_hash text NOT NULL,
	avatar_url text,
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS friendships (
	user_id uuid NOT NULL REFERENCES users(id),
	friend_id uuid NOT NULL REFERENCES users(id),
	created_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, friend_id)
);

CREATE TABLE IF NOT EXISTS chats (
	id uuid PRIMARY KEY,
	is_group boolean NOT NULL DEFAULT false,
	name text,
	cover_image text,
	admin_id uuid REFERENCES users(id),
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_participants (
	chat_id uuid NOT NULL REFERENCES chats(id),
	user_id uuid NOT NULL REFERENCES users(id),
	unread_count integer NOT NULL DEFAULT 0 CHECK (unread_count >= 0),
	joined_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (chat_id, user_id)
);

CREATE TABLE IF NOT EXISTS messages (
	id uuid PRIMARY KEY,
	chat_id uuid NOT NULL REFERENCES chats(id),
	sender_id uuid NOT NULL REFERENCES users(id),
	content text,
	attachments jsonb NOT NULL DEFAULT '[]',
	reactions jsonb NOT NULL DEFAULT '[]',
	reply_to uuid,
	deleted_by uuid[] NOT NULL DEFAULT '{}',
	is_deleted_for_all boolean NOT NULL DEFAULT false,
	mentioned_ids uuid[] NOT NULL DEFAULT '{}',
	is_attachment boolean NOT NULL DEFAULT false,
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_chat_created ON messages (chat_id, created_at DESC);

CREATE TABLE IF NOT EXISTS friend_requests (
	id uuid PRIMARY KEY,
	from_id uuid NOT NULL REFERENCES users(id),
	to_id uuid NOT NULL REFERENCES users(id),
	status text NOT NULL DEFAULT 'pending',
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id uuid PRIMARY KEY,
	sender_id uuid NOT NULL REFERENCES users(id),
	receiver_id uuid NOT NULL REFERENCES users(id),
	kind text NOT NULL,
	content text NOT NULL,
	ref_id uuid NOT NULL,
	ref_kind text NOT NULL,
	is_read boolean NOT NULL DEFAULT false,
	created_at timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_receiver ON notifications (receiver_id, created_at DESC);
`
