package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/infra/mail"
	"github.com/firstcbu/bank-api/internal/infra/observability"
	"github.com/firstcbu/bank-api/internal/port"
)

var authTracer = otel.Tracer("service/auth")

const (
	maxFailedAttempts = 5
	lockDuration      = 30 * time.Minute
	bcryptCost        = 12
	minPasswordLen    = 8
)

// AuthService orchestrates authentication flows.
type AuthService struct {
	ledger     port.LedgerStore
	store      port.AuthStore
	mailer     port.Mailer
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(ledger port.LedgerStore, store port.AuthStore, mailer port.Mailer, jwtSecret string, accessTTL, refreshTTL time.Duration, metrics *observability.Metrics, logger *zap.Logger) *AuthService {
	return &AuthService{
		ledger:     ledger,
		store:      store,
		mailer:     mailer,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		metrics:    metrics,
		logger:     logger,
	}
}

// sendMail delivers an email without blocking or failing the flow.
func (s *AuthService) sendMail(to, subject, html string) {
	if s.mailer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.Send(ctx, to, subject, html); err != nil {
			s.metrics.IncrExternalError("mail")
			s.logger.Warn("auth email failed", zap.String("subject", subject), zap.Error(err))
		}
	}()
}

// newAccountNumber generates a 10-digit account number that cannot
// start with zero.
func newAccountNumber() (string, error) {
	max := big.NewInt(9_000_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+1_000_000_000), nil
}

// Signup opens a new account: the user row starts at zero balance with
// Active status, the credential is stored and a welcome email goes out.
func (s *AuthService) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.SignupResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Signup")
	defer span.End()

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if !strings.Contains(req.Email, "@") {
		return nil, &domain.ErrValidation{Field: "email", Message: "a valid email is required"}
	}
	if len(req.Password) < minPasswordLen {
		return nil, &domain.ErrValidation{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLen)}
	}
	switch req.AccountType {
	case "", "Savings", "Checking", "Business":
	default:
		return nil, &domain.ErrValidation{Field: "accountType", Message: "unknown account type"}
	}
	if req.AccountType == "" {
		req.AccountType = "Savings"
	}

	var notFound *domain.ErrNotFound
	if _, err := s.ledger.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, &domain.ErrConflict{Message: "email already registered"}
	} else if !errors.As(err, &notFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	accountNumber, err := newAccountNumber()
	if err != nil {
		return nil, fmt.Errorf("generate account number: %w", err)
	}

	user := &domain.User{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		DOB:           req.DOB,
		Address:       req.Address,
		Country:       req.Country,
		AccountNumber: accountNumber,
		AccountType:   req.AccountType,
		Currency:      "USD",
		Balance:       0,
		Status:        domain.StatusActive,
		KYCStatus:     domain.KYCPending,
		Role:          domain.RoleCustomer,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.ledger.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if err := s.store.CreateCredential(ctx, user.ID, string(hash)); err != nil {
		// Roll back the orphan user row so the email can be reused.
		_ = s.ledger.DeleteUser(ctx, user.ID)
		return nil, fmt.Errorf("store credential: %w", err)
	}

	s.logger.Info("account opened",
		zap.String("user_id", user.ID),
		zap.String("account_number", accountNumber))

	subject, html := mail.Welcome(user.Name, accountNumber)
	s.sendMail(user.Email, subject, html)

	return &domain.SignupResponse{UserID: user.ID, AccountNumber: accountNumber}, nil
}
