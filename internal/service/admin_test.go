package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/infra/cache"
	"github.com/firstcbu/bank-api/internal/infra/observability"
	"github.com/firstcbu/bank-api/internal/service"
)

func newAdminService(ledger *fakeLedger, kyc *fakeKYCStore) *service.AdminService {
	return service.NewAdminService(ledger, kyc,
		cache.New[domain.DashboardStats](time.Minute),
		observability.NewMetrics(), zap.NewNop())
}

func TestAdminFindUser_ExactMatch(t *testing.T) {
	ledger := newFakeLedger(activeUser("u1", "Alice Doe", "1000000001", 0))
	svc := newAdminService(ledger, newFakeKYCStore())

	byAccount, err := svc.FindUser(context.Background(), "1000000001", "")
	if err != nil {
		t.Fatalf("find by account: %v", err)
	}
	if byAccount.ID != "u1" {
		t.Errorf("expected u1, got %s", byAccount.ID)
	}

	byEmail, err := svc.FindUser(context.Background(), "", "U1@Example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byEmail.ID != "u1" {
		t.Errorf("expected u1, got %s", byEmail.ID)
	}

	_, err = svc.FindUser(context.Background(), "", "")
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdminUpdateUser_StatusChange(t *testing.T) {
	ledger := newFakeLedger(activeUser("u1", "Alice Doe", "1000000001", 0))
	svc := newAdminService(ledger, newFakeKYCStore())

	status := domain.StatusSuspended
	user, err := svc.UpdateUser(context.Background(), "u1", &domain.UserUpdateRequest{Status: &status})
	if err != nil {
		t.Fatalf("expected update to succeed, got %v", err)
	}
	if user.Status != domain.StatusSuspended {
		t.Errorf("expected Suspended, got %s", user.Status)
	}
}

func TestAdminUpdateUser_UnknownStatusRejected(t *testing.T) {
	svc := newAdminService(newFakeLedger(activeUser("u1", "Alice Doe", "1000000001", 0)), newFakeKYCStore())

	status := "Vaporized"
	_, err := svc.UpdateUser(context.Background(), "u1", &domain.UserUpdateRequest{Status: &status})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdminUpdateUser_EmptyBodyRejected(t *testing.T) {
	svc := newAdminService(newFakeLedger(activeUser("u1", "Alice Doe", "1000000001", 0)), newFakeKYCStore())

	_, err := svc.UpdateUser(context.Background(), "u1", &domain.UserUpdateRequest{})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdminDeleteTransaction(t *testing.T) {
	ledger := newFakeLedger(activeUser("u1", "Alice Doe", "1000000001", 100))
	svc := newAdminService(ledger, newFakeKYCStore())

	banking := newBankingService(ledger)
	if _, err := banking.Deposit(context.Background(), &domain.DepositRequest{UserID: "u1", Amount: 50}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	txs, _ := ledger.ListTransactions(context.Background(), "u1", 1, 20)

	if err := svc.DeleteTransaction(context.Background(), txs[0].ID); err != nil {
		t.Fatalf("expected delete to succeed, got %v", err)
	}
	if n, _ := ledger.CountTransactions(context.Background()); n != 0 {
		t.Errorf("expected empty ledger, got %d rows", n)
	}

	// Deleting a ledger row never adjusts the balance.
	user, _ := ledger.GetUser(context.Background(), "u1")
	if user.Balance != 150 {
		t.Errorf("expected balance 150, got %v", user.Balance)
	}
}

func TestDashboardStats_AggregatesAndCaches(t *testing.T) {
	ledger := newFakeLedger(
		activeUser("u1", "Alice Doe", "1000000001", 100),
		activeUser("u2", "Bob Roe", "1000000002", 250),
	)
	kyc := newFakeKYCStore()
	kyc.UpsertKYC(context.Background(), &domain.KYCRecord{UserID: "u1", Status: domain.KYCUnderReview})
	svc := newAdminService(ledger, kyc)

	stats, err := svc.DashboardStats(context.Background())
	if err != nil {
		t.Fatalf("expected stats to succeed, got %v", err)
	}
	if stats.TotalUsers != 2 || stats.TotalBalance != 350 || stats.PendingKYC != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	// A second read within the TTL serves the cached snapshot.
	if err := ledger.CreateUser(context.Background(), activeUser("u3", "Carol Poe", "1000000003", 1000)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cached, err := svc.DashboardStats(context.Background())
	if err != nil {
		t.Fatalf("cached stats: %v", err)
	}
	if cached.TotalUsers != 2 || cached.TotalBalance != 350 {
		t.Errorf("expected cached snapshot, got %+v", cached)
	}
}
