// Package service provides the business logic layer (use cases).
// BankingService handles all money movement: deposits, admin debits,
// transfers, international transfers and bill payments.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/infra/mail"
	"github.com/firstcbu/bank-api/internal/infra/observability"
	"github.com/firstcbu/bank-api/internal/port"
)

var bankTracer = otel.Tracer("service/banking")

// BankingService routes every balance mutation through the ledger
// store's atomic primitives.
type BankingService struct {
	ledger  port.LedgerStore
	limiter port.RateLimiter
	mailer  port.Mailer
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewBankingService creates a new banking service.
func NewBankingService(ledger port.LedgerStore, limiter port.RateLimiter, mailer port.Mailer, metrics *observability.Metrics, logger *zap.Logger) *BankingService {
	return &BankingService{ledger: ledger, limiter: limiter, mailer: mailer, metrics: metrics, logger: logger}
}

// sendMail delivers an email without blocking or failing the operation.
func (s *BankingService) sendMail(to, subject, html string) {
	if s.mailer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.Send(ctx, to, subject, html); err != nil {
			s.metrics.IncrExternalError("mail")
			s.logger.Warn("notification email failed", zap.String("subject", subject), zap.Error(err))
		}
	}()
}

func (s *BankingService) checkRate(ctx context.Context, scope, subject string) error {
	if s.limiter == nil {
		return nil
	}
	retryAfter, err := s.limiter.Allow(ctx, scope, subject)
	if err != nil {
		// Limiter trouble never blocks banking.
		s.logger.Warn("rate limiter error", zap.Error(err))
		return nil
	}
	if retryAfter > 0 {
		return &domain.ErrLimitExceeded{LimitType: scope, RetryAfter: retryAfter}
	}
	return nil
}

func validAmount(amount float64) error {
	if amount <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "must be greater than zero"}
	}
	return nil
}

// GetAccount returns the caller's account.
func (s *BankingService) GetAccount(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := bankTracer.Start(ctx, "BankingService.GetAccount")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return s.ledger.GetUser(ctx, userID)
}

// Statement returns a page of the user's ledger, newest first.
func (s *BankingService) Statement(ctx context.Context, userID string, page, pageSize int) ([]domain.Transaction, error) {
	ctx, span := bankTracer.Start(ctx, "BankingService.Statement")
	defer span.End()

	return s.ledger.ListTransactions(ctx, userID, page, pageSize)
}

// Deposit credits a user's balance. Admin operation.
func (s *BankingService) Deposit(ctx context.Context, req *domain.DepositRequest) (*domain.User, error) {
	ctx, span := bankTracer.Start(ctx, "BankingService.Deposit")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID), attribute.Float64("amount", req.Amount))

	if err := validAmount(req.Amount); err != nil {
		return nil, err
	}

	note := req.Note
	if note == "" {
		note = "Account funding"
	}
	user, err := s.ledger.Credit(ctx, req.UserID, req.Amount, &domain.Transaction{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Type:      domain.TxDeposit,
		Amount:    req.Amount,
		Note:      note,
		Status:    domain.TxStatusSuccessful,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMoneyMoved(domain.TxDeposit, req.Amount)
	subject, html := mail.DepositNotice(user.Name, req.Amount, user.Balance)
	s.sendMail(user.Email, subject, html)
	return user, nil
}

// Debit subtracts from a user's balance. Admin operation. With Override
// the debit goes through even when funds are insufficient and the
// balance may go negative.
func (s *BankingService) Debit(ctx context.Context, req *domain.DebitRequest) (*domain.User, error) {
	ctx, span := bankTracer.Start(ctx, "BankingService.Debit")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", req.UserID),
		attribute.Float64("amount", req.Amount),
		attribute.Bool("override", req.Override))

	if err := validAmount(req.Amount); err != nil {
		return nil, err
	}
	if err := s.checkRate(ctx, "debit", req.UserID); err != nil {
		return nil, err
	}

	note := req.Note
	if note == "" {
		note = "Account adjustment"
	}
	user, err := s.ledger.Debit(ctx, req.UserID, req.Amount, req.Override, &domain.Transaction{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Type:      domain.TxAdminDebit,
		Amount:    req.Amount,
		Note:      note,
		Status:    domain.TxStatusSuccessful,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMoneyMoved(domain.TxAdminDebit, req.Amount)
	return user, nil
}

// Transfer moves money to another account identified by account number.
// Both ledger rows commit atomically with the two balance writes.
func (s *BankingService) Transfer(ctx context.Context, senderID string, req *domain.TransferRequest) (*domain.TransferResult, error) {
	ctx, span := bankTracer.Start(ctx, "BankingService.Transfer")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", senderID), attribute.Float64("amount", req.Amount))

	if err := validAmount(req.Amount); err != nil {
		return nil, err
	}
	if req.RecipientAccount == "" {
		return nil, &domain.ErrValidation{Field: "recipientAccount", Message: "recipient account is required"}
	}
	if err := s.checkRate(ctx, "transfer", senderID); err != nil {
		return nil, err
	}

	sender, err := s.ledger.GetUser(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if sender.Status != domain.StatusActive {
		return nil, &domain.ErrAccountBlocked{Status: sender.Status}
	}

	recipient, err := s.ledger.GetUserByAccountNumber(ctx, req.RecipientAccount)
	if err != nil {
		return nil, err
	}
	if recipient.ID == sender.ID {
		return nil, &domain.ErrValidation{Field: "recipientAccount", Message: "cannot transfer to your own account"}
	}

	now := time.Now().UTC()
	outgoing := &domain.Transaction{
		ID:            uuid.NewString(),
		UserID:        sender.ID,
		Type:          domain.TxTransferOut,
		Amount:        req.Amount,
		Note:          req.Note,
		Status:        domain.TxStatusSuccessful,
		Counterparty:  recipient.Name,
		AccountNumber: recipient.AccountNumber,
		Timestamp:     now,
	}
	incoming := &domain.Transaction{
		ID:            uuid.NewString(),
		UserID:        recipient.ID,
		Type:          domain.TxTransferIn,
		Amount:        req.Amount,
		Note:          req.Note,
		Status:        domain.TxStatusSuccessful,
		Counterparty:  sender.Name,
		AccountNumber: sender.AccountNumber,
		Timestamp:     now,
	}

	newBalance, err := s.ledger.Transfer(ctx, sender.ID, recipient.ID, req.Amount, outgoing, incoming)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMoneyMoved(domain.TxTransferOut, req.Amount)

	subject, html := mail.TransferSent(sender.Name, recipient.Name, req.Amount, newBalance)
	s.sendMail(sender.Email, subject, html)
	subject, html = mail.TransferReceived(recipient.Name, sender.Name, req.Amount)
	s.sendMail(recipient.Email, subject, html)

	return &domain.TransferResult{
		Amount:           req.Amount,
		RecipientName:    recipient.Name,
		RecipientAccount: recipient.AccountNumber,
		NewBalance:       newBalance,
	}, nil
}

// InternationalTransfer debits immediately and records the transfer as
// Pending Review for manual settlement.
func (s *BankingService) InternationalTransfer(ctx context.Context, userID string, req *domain.InternationalTransferRequest) (*domain.User, error) {
	ctx, span := bankTracer.Start(ctx, "BankingService.InternationalTransfer")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.Float64("amount", req.Amount))

	if err := validAmount(req.Amount); err != nil {
		return nil, err
	}
	for field, v := range map[string]string{
		"recipientName": req.RecipientName,
		"recipientBank": req.RecipientBank,
		"iban":          req.IBAN,
		"swift":         req.SWIFT,
		"country":       req.Country,
	} {
		if v == "" {
			return nil, &domain.ErrValidation{Field: field, Message: "is required"}
		}
	}
	if err := s.checkRate(ctx, "transfer", userID); err != nil {
		return nil, err
	}

	user, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != domain.StatusActive {
		return nil, &domain.ErrAccountBlocked{Status: user.Status}
	}

	updated, err := s.ledger.Debit(ctx, userID, req.Amount, false, &domain.Transaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		Type:         domain.TxInternational,
		Amount:       req.Amount,
		Note:         req.Note,
		Status:       domain.TxStatusPendingReview,
		Counterparty: req.RecipientName,
		Bank:         req.RecipientBank,
		IBAN:         req.IBAN,
		SWIFT:        req.SWIFT,
		Country:      req.Country,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMoneyMoved(domain.TxInternational, req.Amount)
	return updated, nil
}

// PayBill debits the balance for a fixed-category bill.
func (s *BankingService) PayBill(ctx context.Context, userID string, req *domain.BillPaymentRequest) (*domain.User, error) {
	ctx, span := bankTracer.Start(ctx, "BankingService.PayBill")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("category", req.Category))

	if err := validAmount(req.Amount); err != nil {
		return nil, err
	}
	valid := false
	for _, c := range domain.BillCategories {
		if c == req.Category {
			valid = true
			break
		}
	}
	if !valid {
		return nil, &domain.ErrValidation{Field: "category", Message: "unknown bill category"}
	}

	user, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != domain.StatusActive {
		return nil, &domain.ErrAccountBlocked{Status: user.Status}
	}

	updated, err := s.ledger.Debit(ctx, userID, req.Amount, false, &domain.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      "Bill Payment - " + req.Category,
		Amount:    req.Amount,
		Status:    domain.TxStatusSuccessful,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMoneyMoved("Bill Payment", req.Amount)
	return updated, nil
}
