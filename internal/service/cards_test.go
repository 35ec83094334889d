package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/infra/observability"
	"github.com/firstcbu/bank-api/internal/service"
)

func newCardsService(cards *fakeCardStore, ledger *fakeLedger) *service.CardsService {
	return service.NewCardsService(cards, ledger, 50, observability.NewMetrics(), zap.NewNop())
}

func TestCardPurchase_DebitsPriceAndIssuesCard(t *testing.T) {
	ledger := newFakeLedger(activeUser("u1", "Alice Doe", "1000000001", 100))
	cards := newFakeCardStore()
	svc := newCardsService(cards, ledger)

	card, err := svc.Purchase(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected purchase to succeed, got %v", err)
	}

	if !strings.HasPrefix(card.CardNumber, "5123 ") || len(card.CardNumber) != 19 {
		t.Errorf("unexpected card number format: %q", card.CardNumber)
	}
	if card.Expiry != "12/28" || len(card.CVV) != 3 {
		t.Errorf("unexpected card fields: expiry=%q cvv=%q", card.Expiry, card.CVV)
	}
	if card.CardType != "Virtual USD Card" || card.Status != service.CardActive || card.Balance != 0 {
		t.Errorf("unexpected card: %+v", card)
	}

	user, _ := ledger.GetUser(context.Background(), "u1")
	if user.Balance != 50 {
		t.Errorf("expected card price debited, balance 50, got %v", user.Balance)
	}
	txs, _ := ledger.ListTransactions(context.Background(), "u1", 1, 20)
	if len(txs) != 1 || txs[0].Type != domain.TxCardPurchase {
		t.Fatalf("expected card purchase ledger row, got %+v", txs)
	}
}

func TestCardPurchase_InsufficientFunds(t *testing.T) {
	ledger := newFakeLedger(activeUser("u1", "Alice Doe", "1000000001", 20))
	svc := newCardsService(newFakeCardStore(), ledger)

	_, err := svc.Purchase(context.Background(), "u1")
	var insufficient *domain.ErrInsufficientFunds
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	user, _ := ledger.GetUser(context.Background(), "u1")
	if user.Balance != 20 {
		t.Errorf("balance must be unchanged, got %v", user.Balance)
	}
}

func TestCardPurchase_SecondCardRejected(t *testing.T) {
	ledger := newFakeLedger(activeUser("u1", "Alice Doe", "1000000001", 500))
	svc := newCardsService(newFakeCardStore(), ledger)

	if _, err := svc.Purchase(context.Background(), "u1"); err != nil {
		t.Fatalf("first purchase: %v", err)
	}

	_, err := svc.Purchase(context.Background(), "u1")
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// The fee is charged only once.
	user, _ := ledger.GetUser(context.Background(), "u1")
	if user.Balance != 450 {
		t.Errorf("expected balance 450, got %v", user.Balance)
	}
}

func TestCardFreezeUnfreeze(t *testing.T) {
	ledger := newFakeLedger(activeUser("u1", "Alice Doe", "1000000001", 100))
	cards := newFakeCardStore()
	svc := newCardsService(cards, ledger)

	if _, err := svc.Purchase(context.Background(), "u1"); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	card, err := svc.SetFrozen(context.Background(), "u1", true)
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if card.Status != service.CardFrozen {
		t.Errorf("expected Frozen, got %s", card.Status)
	}

	card, err = svc.SetFrozen(context.Background(), "u1", false)
	if err != nil {
		t.Fatalf("unfreeze: %v", err)
	}
	if card.Status != service.CardActive {
		t.Errorf("expected Active, got %s", card.Status)
	}
}

func TestCardFreeze_BlockedCardStaysBlocked(t *testing.T) {
	ledger := newFakeLedger(activeUser("u1", "Alice Doe", "1000000001", 100))
	cards := newFakeCardStore()
	svc := newCardsService(cards, ledger)

	card, err := svc.Purchase(context.Background(), "u1")
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if err := svc.SetStatus(context.Background(), card.ID, service.CardBlocked); err != nil {
		t.Fatalf("block: %v", err)
	}

	_, err = svc.SetFrozen(context.Background(), "u1", false)
	var forbidden *domain.ErrForbidden
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
