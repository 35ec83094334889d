package service_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/infra/observability"
	"github.com/firstcbu/bank-api/internal/infra/resilience"
	"github.com/firstcbu/bank-api/internal/service"
)

func newKYCService(kyc *fakeKYCStore, ledger *fakeLedger) *service.KYCService {
	return service.NewKYCService(kyc, ledger, nil, nil,
		resilience.NewBulkhead(4), observability.NewMetrics(), zap.NewNop())
}

func validSubmission() *domain.KYCSubmission {
	return &domain.KYCSubmission{
		IDFront: "https://img.example.com/front.jpg",
		IDBack:  "https://img.example.com/back.jpg",
		Selfie:  "https://img.example.com/selfie.jpg",
	}
}

func TestKYCSubmit_MovesUserUnderReview(t *testing.T) {
	ledger := newFakeLedger(activeUser("u1", "Alice Doe", "1000000001", 0))
	kyc := newFakeKYCStore()
	svc := newKYCService(kyc, ledger)

	rec, err := svc.Submit(context.Background(), "u1", validSubmission())
	if err != nil {
		t.Fatalf("expected submit to succeed, got %v", err)
	}
	if rec.Status != domain.KYCUnderReview {
		t.Errorf("expected Under Review, got %s", rec.Status)
	}

	user, _ := ledger.GetUser(context.Background(), "u1")
	if user.KYCStatus != domain.KYCUnderReview {
		t.Errorf("user kycStatus must mirror the record, got %s", user.KYCStatus)
	}
}

func TestKYCSubmit_MissingDocumentRejected(t *testing.T) {
	svc := newKYCService(newFakeKYCStore(), newFakeLedger(activeUser("u1", "Alice Doe", "1000000001", 0)))

	sub := validSubmission()
	sub.Selfie = ""
	_, err := svc.Submit(context.Background(), "u1", sub)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestKYCSubmit_AlreadyApprovedRejected(t *testing.T) {
	user := activeUser("u1", "Alice Doe", "1000000001", 0)
	user.KYCStatus = domain.KYCApproved
	svc := newKYCService(newFakeKYCStore(), newFakeLedger(user))

	_, err := svc.Submit(context.Background(), "u1", validSubmission())
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestKYCStatus_NoSubmissionReturnsPending(t *testing.T) {
	svc := newKYCService(newFakeKYCStore(), newFakeLedger(activeUser("u1", "Alice Doe", "1000000001", 0)))

	rec, err := svc.Status(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected status to succeed, got %v", err)
	}
	if rec.Status != domain.KYCPending {
		t.Errorf("expected Pending placeholder, got %s", rec.Status)
	}
}

func TestKYCReview_MirrorsDecisionOntoUser(t *testing.T) {
	ledger := newFakeLedger(activeUser("u1", "Alice Doe", "1000000001", 0))
	kyc := newFakeKYCStore()
	svc := newKYCService(kyc, ledger)

	if _, err := svc.Submit(context.Background(), "u1", validSubmission()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := svc.Review(context.Background(), "u1", &domain.KYCReviewRequest{Status: domain.KYCApproved}); err != nil {
		t.Fatalf("expected review to succeed, got %v", err)
	}

	rec, _ := kyc.GetKYC(context.Background(), "u1")
	user, _ := ledger.GetUser(context.Background(), "u1")
	if rec.Status != domain.KYCApproved || user.KYCStatus != domain.KYCApproved {
		t.Errorf("record=%s user=%s, both must be Approved", rec.Status, user.KYCStatus)
	}
}

func TestKYCReview_InvalidDecisionRejected(t *testing.T) {
	svc := newKYCService(newFakeKYCStore(), newFakeLedger(activeUser("u1", "Alice Doe", "1000000001", 0)))

	err := svc.Review(context.Background(), "u1", &domain.KYCReviewRequest{Status: "Maybe"})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestKYCResubmissionAfterRejection(t *testing.T) {
	ledger := newFakeLedger(activeUser("u1", "Alice Doe", "1000000001", 0))
	kyc := newFakeKYCStore()
	svc := newKYCService(kyc, ledger)

	if _, err := svc.Submit(context.Background(), "u1", validSubmission()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Review(context.Background(), "u1", &domain.KYCReviewRequest{Status: domain.KYCRejected}); err != nil {
		t.Fatalf("review: %v", err)
	}

	rec, err := svc.Submit(context.Background(), "u1", validSubmission())
	if err != nil {
		t.Fatalf("resubmission must be allowed, got %v", err)
	}
	if rec.Status != domain.KYCUnderReview {
		t.Errorf("expected Under Review after resubmission, got %s", rec.Status)
	}
}
