package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/infra/mail"
	"github.com/firstcbu/bank-api/internal/infra/observability"
	"github.com/firstcbu/bank-api/internal/infra/resilience"
	"github.com/firstcbu/bank-api/internal/port"
)

var kycTracer = otel.Tracer("service/kyc")

// KYCService handles identity verification: document upload, submission
// and admin review. The review status is mirrored onto the user record.
type KYCService struct {
	kyc      port.KYCStore
	ledger   port.LedgerStore
	images   port.ImageHost
	mailer   port.Mailer
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewKYCService creates a new KYC service. The bulkhead caps concurrent
// document uploads to the image host.
func NewKYCService(kyc port.KYCStore, ledger port.LedgerStore, images port.ImageHost, mailer port.Mailer, bulkhead *resilience.Bulkhead, metrics *observability.Metrics, logger *zap.Logger) *KYCService {
	return &KYCService{kyc: kyc, ledger: ledger, images: images, mailer: mailer, bulkhead: bulkhead, metrics: metrics, logger: logger}
}

// UploadDocument stores one KYC document on the image host and returns
// its public URL.
func (s *KYCService) UploadDocument(ctx context.Context, filename string, r io.Reader) (string, error) {
	ctx, span := kycTracer.Start(ctx, "KYCService.UploadDocument")
	defer span.End()
	span.SetAttributes(attribute.String("upload.filename", filename))

	if s.images == nil {
		return "", &domain.ErrExternalService{Service: "imagehost", Err: fmt.Errorf("image host not configured")}
	}
	if err := s.bulkhead.Acquire(ctx); err != nil {
		return "", err
	}
	defer s.bulkhead.Release()

	url, err := s.images.Upload(ctx, filename, r)
	if err != nil {
		s.metrics.IncrExternalError("imagehost")
		return "", err
	}
	return url, nil
}

// Submit records a KYC submission and moves both the record and the user
// to Under Review. Resubmission after rejection restarts the review.
func (s *KYCService) Submit(ctx context.Context, userID string, sub *domain.KYCSubmission) (*domain.KYCRecord, error) {
	ctx, span := kycTracer.Start(ctx, "KYCService.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if sub.IDFront == "" || sub.IDBack == "" || sub.Selfie == "" {
		return nil, &domain.ErrValidation{Field: "documents", Message: "id front, id back and selfie are all required"}
	}

	user, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.KYCStatus == domain.KYCApproved {
		return nil, &domain.ErrConflict{Message: "identity already verified"}
	}

	rec := &domain.KYCRecord{
		UserID:      userID,
		IDFront:     sub.IDFront,
		IDBack:      sub.IDBack,
		Selfie:      sub.Selfie,
		Status:      domain.KYCUnderReview,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.kyc.UpsertKYC(ctx, rec); err != nil {
		return nil, err
	}
	if _, err := s.ledger.UpdateUser(ctx, userID, map[string]any{"kycStatus": domain.KYCUnderReview}); err != nil {
		return nil, err
	}

	s.logger.Info("kyc submitted", zap.String("user_id", userID))
	return rec, nil
}

// Status returns the user's submission, or a Pending placeholder when
// nothing was submitted yet.
func (s *KYCService) Status(ctx context.Context, userID string) (*domain.KYCRecord, error) {
	ctx, span := kycTracer.Start(ctx, "KYCService.Status")
	defer span.End()

	rec, err := s.kyc.GetKYC(ctx, userID)
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return &domain.KYCRecord{UserID: userID, Status: domain.KYCPending}, nil
		}
		return nil, err
	}
	return rec, nil
}

// ListPending returns submissions awaiting review. Admin operation.
func (s *KYCService) ListPending(ctx context.Context, page, pageSize int) ([]domain.KYCRecord, error) {
	ctx, span := kycTracer.Start(ctx, "KYCService.ListPending")
	defer span.End()

	return s.kyc.ListKYC(ctx, domain.KYCUnderReview, page, pageSize)
}

// Review approves or rejects a submission, mirroring the decision onto
// the user record and notifying the user. Admin operation.
func (s *KYCService) Review(ctx context.Context, userID string, req *domain.KYCReviewRequest) error {
	ctx, span := kycTracer.Start(ctx, "KYCService.Review")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("decision", req.Status))

	if req.Status != domain.KYCApproved && req.Status != domain.KYCRejected {
		return &domain.ErrValidation{Field: "status", Message: "must be Approved or Rejected"}
	}

	if err := s.kyc.UpdateKYCStatus(ctx, userID, req.Status); err != nil {
		return err
	}
	user, err := s.ledger.UpdateUser(ctx, userID, map[string]any{"kycStatus": req.Status})
	if err != nil {
		return err
	}

	s.logger.Info("kyc reviewed",
		zap.String("user_id", userID),
		zap.String("decision", req.Status))

	if s.mailer != nil {
		subject, html := mail.KYCDecision(user.Name, req.Status)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.mailer.Send(ctx, user.Email, subject, html); err != nil {
				s.metrics.IncrExternalError("mail")
				s.logger.Warn("kyc decision email failed", zap.Error(err))
			}
		}()
	}
	return nil
}
