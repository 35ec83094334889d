package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/firstcbu/bank-api/internal/domain"
)

// LedgerStore persists users, balances and the transaction ledger.
type LedgerStore struct {
	*Store
}

// NewLedgerStore wraps the shared store.
func NewLedgerStore(s *Store) *LedgerStore {
	return &LedgerStore{Store: s}
}

const userColumns = `id, name, email, phone, dob, address, country, account_number,
	account_type, currency, balance, status, kyc_status, avatar, role, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.DOB, &u.Address, &u.Country,
		&u.AccountNumber, &u.AccountType, &u.Currency, &u.Balance, &u.Status,
		&u.KYCStatus, &u.Avatar, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user row.
func (s *LedgerStore) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, phone, dob, address, country, account_number,
			account_type, currency, balance, status, kyc_status, avatar, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		u.ID, u.Name, u.Email, u.Phone, u.DOB, u.Address, u.Country, u.AccountNumber,
		u.AccountType, u.Currency, u.Balance, u.Status, u.KYCStatus, u.Avatar, u.Role, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: "email or account number already registered"}
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser fetches a user by id.
func (s *LedgerStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail fetches a user by email.
func (s *LedgerStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "user", ID: email}
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetUserByAccountNumber fetches a user by account number.
func (s *LedgerStore) GetUserByAccountNumber(ctx context.Context, accountNumber string) (*domain.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE account_number = $1`, accountNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountNumber}
	}
	if err != nil {
		return nil, fmt.Errorf("get user by account number: %w", err)
	}
	return u, nil
}

// ListUsers returns a page of users ordered by creation time, newest first.
func (s *LedgerStore) ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// userUpdateColumns maps the updatable field names accepted by UpdateUser
// to their SQL columns. Balance is deliberately absent: balances only
// change through Credit, Debit and Transfer.
var userUpdateColumns = map[string]string{
	"name":      "name",
	"phone":     "phone",
	"address":   "address",
	"country":   "country",
	"status":    "status",
	"kycStatus": "kyc_status",
	"avatar":    "avatar",
}

// UpdateUser applies the given field updates and returns the fresh row.
func (s *LedgerStore) UpdateUser(ctx context.Context, userID string, updates map[string]any) (*domain.User, error) {
	if len(updates) == 0 {
		return s.GetUser(ctx, userID)
	}

	// Deterministic order keeps the query stable for logging and tests.
	keys := make([]string, 0, len(updates))
	for k := range updates {
		if _, ok := userUpdateColumns[k]; !ok {
			return nil, &domain.ErrValidation{Field: k, Message: "field is not updatable"}
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sets []string
	args := []any{userID}
	for i, k := range keys {
		sets = append(sets, fmt.Sprintf("%s = $%d", userUpdateColumns[k], i+2))
		args = append(args, updates[k])
	}

	query := `UPDATE users SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING ` + userColumns
	u, err := scanUser(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// DeleteUser removes the user and, via cascades, their ledger, card,
// KYC, credential and chat rows.
func (s *LedgerStore) DeleteUser(ctx context.Context, userID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	return nil
}

// CountUsers returns the total number of users.
func (s *LedgerStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// SumBalances returns the sum of all user balances.
func (s *LedgerStore) SumBalances(ctx context.Context) (float64, error) {
	var sum float64
	if err := s.pool.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM users`).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum balances: %w", err)
	}
	return sum, nil
}

// Credit atomically adds amount to the user's balance and appends the
// ledger row in the same transaction.
func (s *LedgerStore) Credit(ctx context.Context, userID string, amount float64, log *domain.Transaction) (*domain.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin credit: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance float64
	err = tx.QueryRow(ctx,
		`SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("lock balance: %w", err)
	}

	newBalance := balance + amount
	if _, err := tx.Exec(ctx,
		`UPDATE users SET balance = $1 WHERE id = $2`, newBalance, userID); err != nil {
		return nil, fmt.Errorf("credit balance: %w", err)
	}

	log.BalanceAfter = &newBalance
	if err := insertTransactionTx(ctx, tx, log); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit credit: %w", err)
	}

	s.logger.Info("balance credited",
		zap.String("user_id", userID),
		zap.Float64("amount", amount),
		zap.Float64("balance", newBalance))

	return s.GetUser(ctx, userID)
}

// Debit atomically subtracts amount from the user's balance, failing with
// ErrInsufficientFunds unless override is set, in which case the balance
// may go negative. The ledger row commits with the balance write.
func (s *LedgerStore) Debit(ctx context.Context, userID string, amount float64, override bool, log *domain.Transaction) (*domain.User, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin debit: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance float64
	err = tx.QueryRow(ctx,
		`SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("lock balance: %w", err)
	}

	if balance < amount && !override {
		return nil, &domain.ErrInsufficientFunds{Available: balance, Required: amount}
	}

	newBalance := balance - amount
	if _, err := tx.Exec(ctx,
		`UPDATE users SET balance = $1 WHERE id = $2`, newBalance, userID); err != nil {
		return nil, fmt.Errorf("debit balance: %w", err)
	}

	log.BalanceAfter = &newBalance
	if err := insertTransactionTx(ctx, tx, log); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit debit: %w", err)
	}

	s.logger.Info("balance debited",
		zap.String("user_id", userID),
		zap.Float64("amount", amount),
		zap.Float64("balance", newBalance),
		zap.Bool("override", override))

	return s.GetUser(ctx, userID)
}

// Transfer atomically moves amount from sender to recipient and appends
// both ledger rows in the same transaction. Rows are locked in a fixed
// order (ascending user id) so concurrent opposite-direction transfers
// cannot deadlock.
func (s *LedgerStore) Transfer(ctx context.Context, senderID, recipientID string, amount float64, outgoing, incoming *domain.Transaction) (float64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transfer: %w", err)
	}
	defer tx.Rollback(ctx)

	first, second := senderID, recipientID
	if second < first {
		first, second = second, first
	}

	balances := make(map[string]float64, 2)
	for _, id := range []string{first, second} {
		var b float64
		err := tx.QueryRow(ctx,
			`SELECT balance FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&b)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &domain.ErrNotFound{Resource: "user", ID: id}
		}
		if err != nil {
			return 0, fmt.Errorf("lock balance: %w", err)
		}
		balances[id] = b
	}

	if balances[senderID] < amount {
		return 0, &domain.ErrInsufficientFunds{Available: balances[senderID], Required: amount}
	}

	senderBalance := balances[senderID] - amount
	recipientBalance := balances[recipientID] + amount

	if _, err := tx.Exec(ctx,
		`UPDATE users SET balance = $1 WHERE id = $2`, senderBalance, senderID); err != nil {
		return 0, fmt.Errorf("debit sender: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE users SET balance = $1 WHERE id = $2`, recipientBalance, recipientID); err != nil {
		return 0, fmt.Errorf("credit recipient: %w", err)
	}

	outgoing.BalanceAfter = &senderBalance
	incoming.BalanceAfter = &recipientBalance
	if err := insertTransactionTx(ctx, tx, outgoing); err != nil {
		return 0, err
	}
	if err := insertTransactionTx(ctx, tx, incoming); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transfer: %w", err)
	}

	s.logger.Info("transfer completed",
		zap.String("sender_id", senderID),
		zap.String("recipient_id", recipientID),
		zap.Float64("amount", amount))

	return senderBalance, nil
}

func insertTransactionTx(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (id, user_id, type, amount, note, status, counterparty,
			account_number, balance_after, iban, swift, bank, country, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		t.ID, t.UserID, t.Type, t.Amount, t.Note, t.Status, t.Counterparty,
		t.AccountNumber, t.BalanceAfter, t.IBAN, t.SWIFT, t.Bank, t.Country, t.Timestamp)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

const txColumns = `id, user_id, type, amount, note, status, counterparty,
	account_number, balance_after, iban, swift, bank, country, ts`

func scanTransaction(rows pgx.Rows) (*domain.Transaction, error) {
	var t domain.Transaction
	err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Note, &t.Status,
		&t.Counterparty, &t.AccountNumber, &t.BalanceAfter, &t.IBAN, &t.SWIFT,
		&t.Bank, &t.Country, &t.Timestamp)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTransactions returns the user's ledger page, newest first.
func (s *LedgerStore) ListTransactions(ctx context.Context, userID string, page, pageSize int) ([]domain.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user_id = $1
		 ORDER BY ts DESC LIMIT $2 OFFSET $3`,
		userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ListAllTransactions returns the global ledger page, newest first.
func (s *LedgerStore) ListAllTransactions(ctx context.Context, page, pageSize int) ([]domain.Transaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+txColumns+` FROM transactions ORDER BY ts DESC LIMIT $1 OFFSET $2`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list all transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

// CountTransactions returns the total ledger size.
func (s *LedgerStore) CountTransactions(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// DeleteTransaction removes one ledger row. Balances are not recomputed;
// this is a maintenance tool, not a reversal.
func (s *LedgerStore) DeleteTransaction(ctx context.Context, txID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, txID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "transaction", ID: txID}
	}
	return nil
}
