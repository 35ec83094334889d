package domain

import "time"

// ============================================================
// Authentication
// ============================================================

// SignupRequest creates a new account. Balance starts at 0 and
// status at Active.
type SignupRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       string `json:"phone"`
	DOB         string `json:"dob"`
	Address     string `json:"address"`
	Country     string `json:"country"`
	AccountType string `json:"accountType"` // Savings, Checking or Business
}

// SignupResponse returns the generated account identifiers.
type SignupResponse struct {
	UserID        string `json:"userId"`
	AccountNumber string `json:"accountNumber"`
}

// LoginRequest authenticates by email + password.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session tokens.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Role         string `json:"role"`
}

// RefreshRequest rotates a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest updates the password for a logged-in user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Credential is the stored password hash plus lockout state.
type Credential struct {
	UserID         string
	PasswordHash   string
	FailedAttempts int
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
}

// RefreshToken is a stored (hashed) refresh token.
type RefreshToken struct {
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
}

// Session identifies the authenticated caller; threaded explicitly
// through handlers instead of ambient auth state.
type Session struct {
	UserID string
	Role   string
}
