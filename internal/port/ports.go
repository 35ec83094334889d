// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"io"
	"time"

	"github.com/firstcbu/bank-api/internal/domain"
)

// LedgerStore owns user records, balances and the transaction ledger.
//
// Credit, Debit and Transfer are the shared atomic primitive: each call is
// one atomic section that re-reads the affected balance(s) under a lock,
// verifies sufficiency, writes the new balance(s) and appends the ledger
// row(s), committing or aborting as a unit. No other path mutates balances.
type LedgerStore interface {
	// Users
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByAccountNumber(ctx context.Context, accountNumber string) (*domain.User, error)
	ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, error)
	UpdateUser(ctx context.Context, userID string, updates map[string]any) (*domain.User, error)
	DeleteUser(ctx context.Context, userID string) error
	CountUsers(ctx context.Context) (int, error)
	SumBalances(ctx context.Context) (float64, error)

	// Atomic money movement. Each logs the given ledger rows in the same
	// atomic section as the balance write.
	Credit(ctx context.Context, userID string, amount float64, log *domain.Transaction) (*domain.User, error)
	Debit(ctx context.Context, userID string, amount float64, override bool, log *domain.Transaction) (*domain.User, error)
	Transfer(ctx context.Context, senderID, recipientID string, amount float64, outgoing, incoming *domain.Transaction) (senderBalance float64, err error)

	// Ledger reads / admin maintenance
	ListTransactions(ctx context.Context, userID string, page, pageSize int) ([]domain.Transaction, error)
	ListAllTransactions(ctx context.Context, page, pageSize int) ([]domain.Transaction, error)
	CountTransactions(ctx context.Context) (int, error)
	DeleteTransaction(ctx context.Context, txID string) error
}

// CardStore owns issued virtual cards. Card creation that debits the
// account price goes through LedgerStore.Debit first; the card row itself
// is not part of the atomic section (a failed insert after a successful
// debit is surfaced, not rolled back).
type CardStore interface {
	CreateCard(ctx context.Context, c *domain.Card) error
	GetCardByUser(ctx context.Context, userID string) (*domain.Card, error)
	ListCards(ctx context.Context, page, pageSize int) ([]domain.Card, error)
	UpdateCardStatus(ctx context.Context, cardID, status string) error
	DeleteCard(ctx context.Context, cardID string) error
}

// KYCStore owns KYC submissions. The review status is mirrored onto the
// user record by the caller.
type KYCStore interface {
	UpsertKYC(ctx context.Context, rec *domain.KYCRecord) error
	GetKYC(ctx context.Context, userID string) (*domain.KYCRecord, error)
	ListKYC(ctx context.Context, status string, page, pageSize int) ([]domain.KYCRecord, error)
	UpdateKYCStatus(ctx context.Context, userID, status string) error
	CountKYCByStatus(ctx context.Context, status string) (int, error)
}

// ChatStore owns support chat messages.
type ChatStore interface {
	AppendMessage(ctx context.Context, msg *domain.ChatMessage) error
	ListMessages(ctx context.Context, userID string, limit int) ([]domain.ChatMessage, error)
}

// AuthStore owns credentials and refresh tokens.
type AuthStore interface {
	CreateCredential(ctx context.Context, userID, passwordHash string) error
	GetCredential(ctx context.Context, userID string) (*domain.Credential, error)
	UpdateCredential(ctx context.Context, userID string, updates map[string]any) error

	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) error
}

// Mailer sends transactional email. Implementations are fire-and-forget
// friendly: failures are logged by the caller, never surfaced to the user.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// ImageHost uploads an image and returns its public URL.
type ImageHost interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// RateLimiter throttles money-movement endpoints per subject. A nil or
// unconfigured limiter allows everything (fail open).
type RateLimiter interface {
	Allow(ctx context.Context, scope, subject string) (retryAfterSeconds int, err error)
}
