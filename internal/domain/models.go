// Package domain defines the core entities of the bank:
// users (account holders), the transaction ledger, virtual cards,
// KYC records and support chat messages.
package domain

import "time"

// Account statuses. Only Active accounts may log in or move money.
const (
	StatusActive    = "Active"
	StatusSuspended = "Suspended"
	StatusFrozen    = "Frozen"
	StatusClosed    = "Closed"
)

// KYC statuses.
const (
	KYCPending     = "Pending"
	KYCUnderReview = "Under Review"
	KYCApproved    = "Approved"
	KYCRejected    = "Rejected"
)

// Transaction types appearing in the ledger.
const (
	TxDeposit       = "Deposit"
	TxTransferOut   = "Transfer - Outgoing"
	TxTransferIn    = "Transfer - Incoming"
	TxCardPurchase  = "Card Purchase"
	TxAdminDebit    = "Admin Debit"
	TxInternational = "International Transfer"
)

// Transaction statuses.
const (
	TxStatusSuccessful    = "Successful"
	TxStatusPending       = "Pending"
	TxStatusPendingReview = "Pending Review"
)

// User roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is one customer account. Balance is the single canonical
// balance field in the primary currency.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	DOB           string    `json:"dob,omitempty"`
	Address       string    `json:"address,omitempty"`
	Country       string    `json:"country,omitempty"`
	AccountNumber string    `json:"accountNumber"`
	AccountType   string    `json:"accountType"`
	Currency      string    `json:"currency"`
	Balance       float64   `json:"balance"`
	Status        string    `json:"status"`
	KYCStatus     string    `json:"kycStatus"`
	Avatar        string    `json:"avatar,omitempty"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Transaction is one immutable ledger entry. Amount is always positive;
// Type carries the direction.
type Transaction struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Type          string    `json:"type"`
	Amount        float64   `json:"amount"`
	Note          string    `json:"note,omitempty"`
	Status        string    `json:"status"`
	Counterparty  string    `json:"counterparty,omitempty"`  // name of the other side, direction-dependent
	AccountNumber string    `json:"accountNumber,omitempty"` // account number of the other side
	BalanceAfter  *float64  `json:"balanceAfter,omitempty"`  // recorded on deposits
	IBAN          string    `json:"iban,omitempty"`
	SWIFT         string    `json:"swift,omitempty"`
	Bank          string    `json:"bank,omitempty"`
	Country       string    `json:"country,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Card is one issued virtual card. The card balance is a separate float
// used only for the card view; it is not tied into transfers.
type Card struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	CardNumber string    `json:"cardNumber"`
	Expiry     string    `json:"expiry"`
	CVV        string    `json:"cvv"`
	CardType   string    `json:"cardType"`
	Status     string    `json:"status"`
	Balance    float64   `json:"balance"`
	CreatedAt  time.Time `json:"createdAt"`
}

// KYCRecord holds the three uploaded document URLs and the review status.
type KYCRecord struct {
	UserID      string    `json:"userId"`
	IDFront     string    `json:"idFront"`
	IDBack      string    `json:"idBack"`
	Selfie      string    `json:"selfie"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// ChatMessage is one support chat message, sent either by the user
// or by a support agent.
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Sender    string    `json:"sender"` // "user" or "support"
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// ============================================================
// Money movement requests/responses
// ============================================================

// DepositRequest credits a user's balance (admin operation).
type DepositRequest struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
	Note   string  `json:"note,omitempty"`
}

// DebitRequest debits a user's balance (admin operation). Override
// permits the debit even when the balance is insufficient.
type DebitRequest struct {
	UserID   string  `json:"userId"`
	Amount   float64 `json:"amount"`
	Note     string  `json:"note,omitempty"`
	Override bool    `json:"override"`
}

// TransferRequest moves money to another account by account number.
type TransferRequest struct {
	RecipientAccount string  `json:"recipientAccount"`
	Amount           float64 `json:"amount"`
	Note             string  `json:"note,omitempty"`
}

// TransferResult carries the display values for the confirmation view.
type TransferResult struct {
	Amount           float64 `json:"amount"`
	RecipientName    string  `json:"recipientName"`
	RecipientAccount string  `json:"recipientAccount"`
	NewBalance       float64 `json:"newBalance"`
}

// InternationalTransferRequest submits a transfer to an external bank.
// It debits immediately and is queued for admin review.
type InternationalTransferRequest struct {
	RecipientName string  `json:"recipientName"`
	RecipientBank string  `json:"recipientBank"`
	IBAN          string  `json:"iban"`
	SWIFT         string  `json:"swift"`
	Country       string  `json:"country"`
	Amount        float64 `json:"amount"`
	Note          string  `json:"note,omitempty"`
}

// BillPaymentRequest pays a bill of a fixed category from the balance.
type BillPaymentRequest struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// BillCategories are the payable bill types offered by the dashboard.
var BillCategories = []string{"Electricity", "Water", "Internet", "Cable TV", "Tuition"}

// ============================================================
// KYC / chat requests
// ============================================================

// KYCSubmission carries the three uploaded document URLs.
type KYCSubmission struct {
	IDFront string `json:"idFront"`
	IDBack  string `json:"idBack"`
	Selfie  string `json:"selfie"`
}

// KYCReviewRequest is the admin approve/reject action.
type KYCReviewRequest struct {
	Status string `json:"status"` // Approved or Rejected
}

// ChatPostRequest posts one support chat message.
type ChatPostRequest struct {
	Text string `json:"text"`
}

// ============================================================
// Admin console
// ============================================================

// UserUpdateRequest is the admin profile edit. Nil fields are left unchanged.
type UserUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	Country *string `json:"country,omitempty"`
	Status  *string `json:"status,omitempty"`
	Avatar  *string `json:"avatar,omitempty"`
}

// DashboardStats is the aggregated admin overview. ErrorRate comes from
// the process metrics, the rest from the store.
type DashboardStats struct {
	TotalUsers        int     `json:"totalUsers"`
	TotalBalance      float64 `json:"totalBalance"`
	TotalTransactions int     `json:"totalTransactions"`
	PendingKYC        int     `json:"pendingKyc"`
	ErrorRate         float64 `json:"errorRate"`
}
