package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"pethaven/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

const messageColumns = `id, sender_id, receiver_id, pet_id, content, chat_id, is_read, created_at`

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	query := `
		INSERT INTO messages (id, sender_id, receiver_id, pet_id, content, chat_id, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query,
		m.ID, m.SenderID, m.ReceiverID, m.PetID, m.Content, m.ChatID, m.Read, toUnix(m.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepo) ListForUser(ctx context.Context, userID string) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE sender_id = ? OR receiver_id = ?
		ORDER BY created_at DESC, rowid DESC
	`
	return r.list(ctx, query, userID, userID)
}

func (r *MessageRepo) ListBetween(ctx context.Context, a, b, petID string) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))
		  AND (? = '' OR pet_id = ?)
		ORDER BY created_at ASC, rowid ASC
	`
	return r.list(ctx, query, a, b, b, a, petID, petID)
}

func (r *MessageRepo) MarkRead(ctx context.Context, from, to, petID string) (int, error) {
	query := `
		UPDATE messages SET is_read = 1
		WHERE sender_id = ? AND receiver_id = ? AND is_read = 0
		  AND (? = '' OR pet_id = ?)
	`
	res, err := r.db.ExecContext(ctx, query, from, to, petID, petID)
	if err != nil {
		return 0, fmt.Errorf("mark messages read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func (r *MessageRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	res := make([]*domain.Message, 0)
	for rows.Next() {
		m := &domain.Message{}
		var created int64
		if err := rows.Scan(
			&m.ID,
			&m.SenderID,
			&m.ReceiverID,
			&m.PetID,
			&m.Content,
			&m.ChatID,
			&m.Read,
			&created,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.CreatedAt = fromUnix(created)
		res = append(res, m)
	}
	return res, rows.Err()
}
