package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/firstcbu/bank-api/internal/domain"
)

// KYCStore persists KYC submissions.
type KYCStore struct {
	*Store
}

// NewKYCStore wraps the shared store.
func NewKYCStore(s *Store) *KYCStore {
	return &KYCStore{Store: s}
}

// UpsertKYC stores or replaces the user's submission. Resubmission after
// a rejection overwrites the previous documents and resets the status.
func (s *KYCStore) UpsertKYC(ctx context.Context, rec *domain.KYCRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kyc_records (user_id, id_front, id_back, selfie, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			id_front = EXCLUDED.id_front,
			id_back = EXCLUDED.id_back,
			selfie = EXCLUDED.selfie,
			status = EXCLUDED.status,
			submitted_at = EXCLUDED.submitted_at`,
		rec.UserID, rec.IDFront, rec.IDBack, rec.Selfie, rec.Status, rec.SubmittedAt)
	if err != nil {
		return fmt.Errorf("upsert kyc: %w", err)
	}
	return nil
}

// GetKYC fetches the user's submission.
func (s *KYCStore) GetKYC(ctx context.Context, userID string) (*domain.KYCRecord, error) {
	var rec domain.KYCRecord
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, id_front, id_back, selfie, status, submitted_at
		 FROM kyc_records WHERE user_id = $1`, userID).
		Scan(&rec.UserID, &rec.IDFront, &rec.IDBack, &rec.Selfie, &rec.Status, &rec.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "kyc record", ID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("get kyc: %w", err)
	}
	return &rec, nil
}

// ListKYC returns a page of submissions, optionally filtered by status.
func (s *KYCStore) ListKYC(ctx context.Context, status string, page, pageSize int) ([]domain.KYCRecord, error) {
	query := `SELECT user_id, id_front, id_back, selfie, status, submitted_at FROM kyc_records`
	args := []any{pageSize, (page - 1) * pageSize}
	if status != "" {
		query += ` WHERE status = $3`
		args = append(args, status)
	}
	query += ` ORDER BY submitted_at DESC LIMIT $1 OFFSET $2`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list kyc: %w", err)
	}
	defer rows.Close()

	var recs []domain.KYCRecord
	for rows.Next() {
		var rec domain.KYCRecord
		if err := rows.Scan(&rec.UserID, &rec.IDFront, &rec.IDBack, &rec.Selfie,
			&rec.Status, &rec.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan kyc: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// UpdateKYCStatus sets the review status of a submission.
func (s *KYCStore) UpdateKYCStatus(ctx context.Context, userID, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE kyc_records SET status = $1 WHERE user_id = $2`, status, userID)
	if err != nil {
		return fmt.Errorf("update kyc status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "kyc record", ID: userID}
	}
	return nil
}

// CountKYCByStatus counts submissions in a given status.
func (s *KYCStore) CountKYCByStatus(ctx context.Context, status string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM kyc_records WHERE status = $1`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("count kyc: %w", err)
	}
	return n, nil
}
