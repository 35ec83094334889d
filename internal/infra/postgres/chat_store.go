package postgres

import (
	"context"
	"fmt"

	"github.com/firstcbu/bank-api/internal/domain"
)

// ChatStore persists support chat messages.
type ChatStore struct {
	*Store
}

// NewChatStore wraps the shared store.
func NewChatStore(s *Store) *ChatStore {
	return &ChatStore{Store: s}
}

// AppendMessage stores one chat message.
func (s *ChatStore) AppendMessage(ctx context.Context, msg *domain.ChatMessage) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_messages (id, user_id, sender, text, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.UserID, msg.Sender, msg.Text, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

// ListMessages returns the user's conversation in chronological order,
// capped at the most recent limit messages.
func (s *ChatStore) ListMessages(ctx context.Context, userID string, limit int) ([]domain.ChatMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, sender, text, created_at FROM (
			SELECT id, user_id, sender, text, created_at
			FROM chat_messages WHERE user_id = $1
			ORDER BY created_at DESC LIMIT $2
		) recent ORDER BY created_at ASC`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var msgs []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Sender, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
