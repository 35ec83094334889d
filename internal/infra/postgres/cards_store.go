package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/firstcbu/bank-api/internal/domain"
)

// CardStore persists issued virtual cards.
type CardStore struct {
	*Store
}

// NewCardStore wraps the shared store.
func NewCardStore(s *Store) *CardStore {
	return &CardStore{Store: s}
}

const cardColumns = `id, user_id, card_number, expiry, cvv, card_type, status, balance, created_at`

func scanCard(row pgx.Row) (*domain.Card, error) {
	var c domain.Card
	err := row.Scan(&c.ID, &c.UserID, &c.CardNumber, &c.Expiry, &c.CVV,
		&c.CardType, &c.Status, &c.Balance, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCard inserts a card. The unique index on user_id enforces the
// one-card-per-user rule at the storage level.
func (s *CardStore) CreateCard(ctx context.Context, c *domain.Card) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cards (id, user_id, card_number, expiry, cvv, card_type, status, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.UserID, c.CardNumber, c.Expiry, c.CVV, c.CardType, c.Status, c.Balance, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: "user already has a card"}
		}
		return fmt.Errorf("create card: %w", err)
	}
	return nil
}

// GetCardByUser fetches the user's card.
func (s *CardStore) GetCardByUser(ctx context.Context, userID string) (*domain.Card, error) {
	c, err := scanCard(s.pool.QueryRow(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE user_id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "card", ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}

// ListCards returns a page of all cards, newest first.
func (s *CardStore) ListCards(ctx context.Context, page, pageSize int) ([]domain.Card, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+cardColumns+` FROM cards ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

// UpdateCardStatus sets the card status (Active, Frozen or Blocked).
func (s *CardStore) UpdateCardStatus(ctx context.Context, cardID, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE cards SET status = $1 WHERE id = $2`, status, cardID)
	if err != nil {
		return fmt.Errorf("update card status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "card", ID: cardID}
	}
	return nil
}

// DeleteCard removes a card.
func (s *CardStore) DeleteCard(ctx context.Context, cardID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cards WHERE id = $1`, cardID)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "card", ID: cardID}
	}
	return nil
}
