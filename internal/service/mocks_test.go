package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/firstcbu/bank-api/internal/domain"
)

// --- In-memory fakes for the store ports ---

type fakeLedger struct {
	mu    sync.Mutex
	users map[string]*domain.User
	txs   []domain.Transaction
}

func newFakeLedger(users ...*domain.User) *fakeLedger {
	f := &fakeLedger{users: make(map[string]*domain.User)}
	for _, u := range users {
		cp := *u
		f.users[u.ID] = &cp
	}
	return f
}

func (f *fakeLedger) CreateUser(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return &domain.ErrConflict{Message: "email or account number already registered"}
		}
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeLedger) GetUser(_ context.Context, userID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	cp := *u
	return &cp, nil
}

func (f *fakeLedger) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: email}
}

func (f *fakeLedger) GetUserByAccountNumber(_ context.Context, accountNumber string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.AccountNumber == accountNumber {
			cp := *u
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "account", ID: accountNumber}
}

func (f *fakeLedger) ListUsers(_ context.Context, _, _ int) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeLedger) UpdateUser(_ context.Context, userID string, updates map[string]any) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	for k, v := range updates {
		s, _ := v.(string)
		switch k {
		case "name":
			u.Name = s
		case "phone":
			u.Phone = s
		case "address":
			u.Address = s
		case "country":
			u.Country = s
		case "status":
			u.Status = s
		case "kycStatus":
			u.KYCStatus = s
		case "avatar":
			u.Avatar = s
		default:
			return nil, &domain.ErrValidation{Field: k, Message: "field is not updatable"}
		}
	}
	cp := *u
	return &cp, nil
}

func (f *fakeLedger) DeleteUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeLedger) CountUsers(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users), nil
}

func (f *fakeLedger) SumBalances(_ context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum float64
	for _, u := range f.users {
		sum += u.Balance
	}
	return sum, nil
}

func (f *fakeLedger) Credit(_ context.Context, userID string, amount float64, log *domain.Transaction) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	u.Balance += amount
	balance := u.Balance
	log.BalanceAfter = &balance
	f.txs = append(f.txs, *log)
	cp := *u
	return &cp, nil
}

func (f *fakeLedger) Debit(_ context.Context, userID string, amount float64, override bool, log *domain.Transaction) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	if u.Balance < amount && !override {
		return nil, &domain.ErrInsufficientFunds{Available: u.Balance, Required: amount}
	}
	u.Balance -= amount
	balance := u.Balance
	log.BalanceAfter = &balance
	f.txs = append(f.txs, *log)
	cp := *u
	return &cp, nil
}

func (f *fakeLedger) Transfer(_ context.Context, senderID, recipientID string, amount float64, outgoing, incoming *domain.Transaction) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sender, ok := f.users[senderID]
	if !ok {
		return 0, &domain.ErrNotFound{Resource: "user", ID: senderID}
	}
	recipient, ok := f.users[recipientID]
	if !ok {
		return 0, &domain.ErrNotFound{Resource: "user", ID: recipientID}
	}
	if sender.Balance < amount {
		return 0, &domain.ErrInsufficientFunds{Available: sender.Balance, Required: amount}
	}
	sender.Balance -= amount
	recipient.Balance += amount
	sb, rb := sender.Balance, recipient.Balance
	outgoing.BalanceAfter = &sb
	incoming.BalanceAfter = &rb
	f.txs = append(f.txs, *outgoing, *incoming)
	return sender.Balance, nil
}

func (f *fakeLedger) ListTransactions(_ context.Context, userID string, _, _ int) ([]domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Transaction
	for _, tx := range f.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListAllTransactions(_ context.Context, _, _ int) ([]domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Transaction(nil), f.txs...), nil
}

func (f *fakeLedger) CountTransactions(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.txs), nil
}

func (f *fakeLedger) DeleteTransaction(_ context.Context, txID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, tx := range f.txs {
		if tx.ID == txID {
			f.txs = append(f.txs[:i], f.txs[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "transaction", ID: txID}
}

type fakeAuthStore struct {
	mu      sync.Mutex
	creds   map[string]*domain.Credential
	refresh map[string]*domain.RefreshToken
}

func newFakeAuthStore() *fakeAuthStore {
	return &fakeAuthStore{
		creds:   make(map[string]*domain.Credential),
		refresh: make(map[string]*domain.RefreshToken),
	}
}

func (f *fakeAuthStore) CreateCredential(_ context.Context, userID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.creds[userID]; ok {
		return &domain.ErrConflict{Message: "credential already exists"}
	}
	f.creds[userID] = &domain.Credential{UserID: userID, PasswordHash: passwordHash}
	return nil
}

func (f *fakeAuthStore) GetCredential(_ context.Context, userID string) (*domain.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creds[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "credential", ID: userID}
	}
	cp := *c
	return &cp, nil
}

func (f *fakeAuthStore) UpdateCredential(_ context.Context, userID string, updates map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.creds[userID]
	if !ok {
		return &domain.ErrNotFound{Resource: "credential", ID: userID}
	}
	for k, v := range updates {
		switch k {
		case "password_hash":
			c.PasswordHash = v.(string)
		case "failed_attempts":
			c.FailedAttempts = v.(int)
		case "locked_until":
			if v == nil {
				c.LockedUntil = nil
			} else {
				t := v.(time.Time)
				c.LockedUntil = &t
			}
		case "last_login_at":
			t := v.(time.Time)
			c.LastLoginAt = &t
		}
	}
	return nil
}

func (f *fakeAuthStore) StoreRefreshToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh[tokenHash] = &domain.RefreshToken{UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeAuthStore) GetRefreshToken(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.refresh[tokenHash]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "refresh token", ID: ""}
	}
	cp := *t
	return &cp, nil
}

func (f *fakeAuthStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.refresh[tokenHash]; ok {
		t.Revoked = true
	}
	return nil
}

func (f *fakeAuthStore) RevokeAllRefreshTokens(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.refresh {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

type fakeCardStore struct {
	mu    sync.Mutex
	cards map[string]*domain.Card // keyed by user id
}

func newFakeCardStore() *fakeCardStore {
	return &fakeCardStore{cards: make(map[string]*domain.Card)}
}

func (f *fakeCardStore) CreateCard(_ context.Context, c *domain.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cards[c.UserID]; ok {
		return &domain.ErrConflict{Message: "user already has a card"}
	}
	cp := *c
	f.cards[c.UserID] = &cp
	return nil
}

func (f *fakeCardStore) GetCardByUser(_ context.Context, userID string) (*domain.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "card", ID: userID}
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCardStore) ListCards(_ context.Context, _, _ int) ([]domain.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Card
	for _, c := range f.cards {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCardStore) UpdateCardStatus(_ context.Context, cardID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cards {
		if c.ID == cardID {
			c.Status = status
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "card", ID: cardID}
}

func (f *fakeCardStore) DeleteCard(_ context.Context, cardID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for userID, c := range f.cards {
		if c.ID == cardID {
			delete(f.cards, userID)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "card", ID: cardID}
}

type fakeKYCStore struct {
	mu   sync.Mutex
	recs map[string]*domain.KYCRecord
}

func newFakeKYCStore() *fakeKYCStore {
	return &fakeKYCStore{recs: make(map[string]*domain.KYCRecord)}
}

func (f *fakeKYCStore) UpsertKYC(_ context.Context, rec *domain.KYCRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *rec
	f.recs[rec.UserID] = &cp
	return nil
}

func (f *fakeKYCStore) GetKYC(_ context.Context, userID string) (*domain.KYCRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recs[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "kyc record", ID: userID}
	}
	cp := *r
	return &cp, nil
}

func (f *fakeKYCStore) ListKYC(_ context.Context, status string, _, _ int) ([]domain.KYCRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.KYCRecord
	for _, r := range f.recs {
		if status == "" || r.Status == status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeKYCStore) UpdateKYCStatus(_ context.Context, userID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.recs[userID]
	if !ok {
		return &domain.ErrNotFound{Resource: "kyc record", ID: userID}
	}
	r.Status = status
	return nil
}

func (f *fakeKYCStore) CountKYCByStatus(_ context.Context, status string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.recs {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeChatStore struct {
	mu   sync.Mutex
	msgs []domain.ChatMessage
}

func (f *fakeChatStore) AppendMessage(_ context.Context, msg *domain.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, *msg)
	return nil
}

func (f *fakeChatStore) ListMessages(_ context.Context, userID string, limit int) ([]domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ChatMessage
	for _, m := range f.msgs {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeLimiter struct {
	retryAfter int
	err        error
}

func (f *fakeLimiter) Allow(_ context.Context, _, _ string) (int, error) {
	return f.retryAfter, f.err
}
