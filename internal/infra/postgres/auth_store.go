package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/firstcbu/bank-api/internal/domain"
)

// AuthStore persists credentials and refresh tokens.
type AuthStore struct {
	*Store
}

// NewAuthStore wraps the shared store.
func NewAuthStore(s *Store) *AuthStore {
	return &AuthStore{Store: s}
}

// CreateCredential stores the password hash for a new user.
func (s *AuthStore) CreateCredential(ctx context.Context, userID, passwordHash string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO auth_credentials (user_id, password_hash) VALUES ($1, $2)`,
		userID, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: "credential already exists"}
		}
		return fmt.Errorf("create credential: %w", err)
	}
	return nil
}

// GetCredential fetches the credential row for a user.
func (s *AuthStore) GetCredential(ctx context.Context, userID string) (*domain.Credential, error) {
	var c domain.Credential
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, password_hash, failed_attempts, locked_until, last_login_at
		 FROM auth_credentials WHERE user_id = $1`, userID).
		Scan(&c.UserID, &c.PasswordHash, &c.FailedAttempts, &c.LockedUntil, &c.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "credential", ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return &c, nil
}

var credentialColumns = map[string]string{
	"password_hash":   "password_hash",
	"failed_attempts": "failed_attempts",
	"locked_until":    "locked_until",
	"last_login_at":   "last_login_at",
}

// UpdateCredential applies the given field updates.
func (s *AuthStore) UpdateCredential(ctx context.Context, userID string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	keys := make([]string, 0, len(updates))
	for k := range updates {
		if _, ok := credentialColumns[k]; !ok {
			return &domain.ErrValidation{Field: k, Message: "field is not updatable"}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sets []string
	args := []any{userID}
	for i, k := range keys {
		sets = append(sets, fmt.Sprintf("%s = $%d", credentialColumns[k], i+2))
		args = append(args, updates[k])
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE auth_credentials SET `+strings.Join(sets, ", ")+` WHERE user_id = $1`, args...)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "credential", ID: userID}
	}
	return nil
}

// StoreRefreshToken saves a hashed refresh token.
func (s *AuthStore) StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO auth_refresh_tokens (token_hash, user_id, expires_at) VALUES ($1, $2, $3)`,
		tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken fetches a refresh token by hash.
func (s *AuthStore) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := s.pool.QueryRow(ctx,
		`SELECT token_hash, user_id, expires_at, revoked
		 FROM auth_refresh_tokens WHERE token_hash = $1`, tokenHash).
		Scan(&t.TokenHash, &t.UserID, &t.ExpiresAt, &t.Revoked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "refresh token", ID: ""}
	}
	if err != nil {
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	return &t, nil
}

// RevokeRefreshToken marks one token revoked.
func (s *AuthStore) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE auth_refresh_tokens SET revoked = TRUE WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllRefreshTokens revokes every token for a user, ending all sessions.
func (s *AuthStore) RevokeAllRefreshTokens(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE auth_refresh_tokens SET revoked = TRUE WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}
