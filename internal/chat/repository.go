// Package chat stores the global chat room side records. Messages live in
// their own table, outside any account document.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when deleting a message that does not exist.
var ErrNotFound = errors.New("message not found")

// Schema is the DDL for the global_chat table.
const Schema = `
CREATE TABLE IF NOT EXISTS global_chat (
	id           bigserial PRIMARY KEY,
	sender_email text NOT NULL,
	sender_role  text NOT NULL,
	message      text NOT NULL,
	created_at   timestamptz NOT NULL DEFAULT now()
);
`

type Message struct {
	ID          int64     `json:"id"`
	SenderEmail string    `json:"sender_email"`
	SenderRole  string    `json:"sender_role"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Migrate creates the global_chat table if it does not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, Schema)
	return err
}

// Append inserts one message and returns it with id and timestamp set.
func (r *Repository) Append(ctx context.Context, senderEmail, senderRole, message string) (*Message, error) {
	m := &Message{SenderEmail: senderEmail, SenderRole: senderRole, Message: message}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO global_chat (sender_email, sender_role, message)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, senderEmail, senderRole, message).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// List returns the most recent messages, oldest first.
func (r *Repository) List(ctx context.Context, limit int) ([]*Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, sender_email, sender_role, message, created_at
		FROM (
			SELECT id, sender_email, sender_role, message, created_at
			FROM global_chat ORDER BY id DESC LIMIT $1
		) recent ORDER BY id ASC
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderEmail, &m.SenderRole, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// Delete removes one message. Admin moderation only.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM global_chat WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
