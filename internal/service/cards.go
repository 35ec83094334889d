package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/infra/observability"
	"github.com/firstcbu/bank-api/internal/port"
)

var cardTracer = otel.Tracer("service/cards")

// Card statuses.
const (
	CardActive  = "Active"
	CardFrozen  = "Frozen"
	CardBlocked = "Blocked"
)

// CardsService issues and manages virtual cards. Issuance debits the
// card price from the account balance through the ledger.
type CardsService struct {
	cards     port.CardStore
	ledger    port.LedgerStore
	cardPrice float64
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewCardsService creates a new cards service.
func NewCardsService(cards port.CardStore, ledger port.LedgerStore, cardPrice float64, metrics *observability.Metrics, logger *zap.Logger) *CardsService {
	return &CardsService{cards: cards, ledger: ledger, cardPrice: cardPrice, metrics: metrics, logger: logger}
}

// newCardNumber generates a display card number in the issuer's BIN range.
func newCardNumber() string {
	return fmt.Sprintf("5123 %04d %04d %04d", rand.Intn(10000), rand.Intn(10000), rand.Intn(10000))
}

// Purchase issues the user's virtual card, debiting the card price.
// Each user may hold at most one card.
func (s *CardsService) Purchase(ctx context.Context, userID string) (*domain.Card, error) {
	ctx, span := cardTracer.Start(ctx, "CardsService.Purchase")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var notFound *domain.ErrNotFound
	if _, err := s.cards.GetCardByUser(ctx, userID); err == nil {
		return nil, &domain.ErrConflict{Message: "user already has a card"}
	} else if !errors.As(err, &notFound) {
		return nil, err
	}

	user, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != domain.StatusActive {
		return nil, &domain.ErrAccountBlocked{Status: user.Status}
	}

	if _, err := s.ledger.Debit(ctx, userID, s.cardPrice, false, &domain.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      domain.TxCardPurchase,
		Amount:    s.cardPrice,
		Note:      "Virtual card issuance fee",
		Status:    domain.TxStatusSuccessful,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	card := &domain.Card{
		ID:         uuid.NewString(),
		UserID:     userID,
		CardNumber: newCardNumber(),
		Expiry:     "12/28",
		CVV:        fmt.Sprintf("%03d", rand.Intn(1000)),
		CardType:   "Virtual USD Card",
		Status:     CardActive,
		Balance:    0,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.cards.CreateCard(ctx, card); err != nil {
		// The fee is already taken; surface the failure loudly so support
		// can reconcile rather than silently refunding.
		s.logger.Error("card insert failed after fee debit",
			zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.metrics.RecordMoneyMoved(domain.TxCardPurchase, s.cardPrice)
	s.logger.Info("card issued", zap.String("user_id", userID), zap.String("card_id", card.ID))
	return card, nil
}

// Get returns the user's card.
func (s *CardsService) Get(ctx context.Context, userID string) (*domain.Card, error) {
	ctx, span := cardTracer.Start(ctx, "CardsService.Get")
	defer span.End()

	return s.cards.GetCardByUser(ctx, userID)
}

// SetFrozen freezes or unfreezes the caller's own card. A Blocked card
// stays blocked; only an admin can lift that.
func (s *CardsService) SetFrozen(ctx context.Context, userID string, frozen bool) (*domain.Card, error) {
	ctx, span := cardTracer.Start(ctx, "CardsService.SetFrozen")
	defer span.End()
	span.SetAttributes(attribute.Bool("frozen", frozen))

	card, err := s.cards.GetCardByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if card.Status == CardBlocked {
		return nil, &domain.ErrForbidden{Action: "change a blocked card"}
	}

	status := CardActive
	if frozen {
		status = CardFrozen
	}
	if err := s.cards.UpdateCardStatus(ctx, card.ID, status); err != nil {
		return nil, err
	}
	card.Status = status
	return card, nil
}

// List returns a page of all issued cards. Admin operation.
func (s *CardsService) List(ctx context.Context, page, pageSize int) ([]domain.Card, error) {
	ctx, span := cardTracer.Start(ctx, "CardsService.List")
	defer span.End()

	return s.cards.ListCards(ctx, page, pageSize)
}

// SetStatus sets any card status. Admin operation.
func (s *CardsService) SetStatus(ctx context.Context, cardID, status string) error {
	ctx, span := cardTracer.Start(ctx, "CardsService.SetStatus")
	defer span.End()

	switch status {
	case CardActive, CardFrozen, CardBlocked:
	default:
		return &domain.ErrValidation{Field: "status", Message: "unknown card status"}
	}
	return s.cards.UpdateCardStatus(ctx, cardID, status)
}

// Delete removes a card. Admin operation. The issuance fee is not refunded.
func (s *CardsService) Delete(ctx context.Context, cardID string) error {
	ctx, span := cardTracer.Start(ctx, "CardsService.Delete")
	defer span.End()

	return s.cards.DeleteCard(ctx, cardID)
}
