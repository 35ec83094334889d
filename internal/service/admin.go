package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/infra/observability"
	"github.com/firstcbu/bank-api/internal/port"
)

var adminTracer = otel.Tracer("service/admin")

const statsCacheKey = "dashboard"

// AdminService backs the back-office console: user management, the
// global ledger and the dashboard overview.
type AdminService struct {
	ledger     port.LedgerStore
	kyc        port.KYCStore
	statsCache port.Cache[domain.DashboardStats]
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewAdminService creates a new admin service. statsCache smooths the
// dashboard aggregate queries; pass a short-TTL cache.
func NewAdminService(ledger port.LedgerStore, kyc port.KYCStore, statsCache port.Cache[domain.DashboardStats], metrics *observability.Metrics, logger *zap.Logger) *AdminService {
	return &AdminService{ledger: ledger, kyc: kyc, statsCache: statsCache, metrics: metrics, logger: logger}
}

// ListUsers returns a page of all users.
func (s *AdminService) ListUsers(ctx context.Context, page, pageSize int) ([]domain.User, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.ListUsers")
	defer span.End()

	return s.ledger.ListUsers(ctx, page, pageSize)
}

// FindUser resolves a user by exact account number or email match.
func (s *AdminService) FindUser(ctx context.Context, accountNumber, email string) (*domain.User, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.FindUser")
	defer span.End()

	switch {
	case accountNumber != "":
		return s.ledger.GetUserByAccountNumber(ctx, accountNumber)
	case email != "":
		return s.ledger.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	default:
		return nil, &domain.ErrValidation{Field: "query", Message: "account_number or email is required"}
	}
}

// GetUser returns one user.
func (s *AdminService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.GetUser")
	defer span.End()

	return s.ledger.GetUser(ctx, userID)
}

// UpdateUser applies a profile edit. Changing status to Suspended or
// Closed locks the user out on their next token refresh.
func (s *AdminService) UpdateUser(ctx context.Context, userID string, req *domain.UserUpdateRequest) (*domain.User, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.UpdateUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Country != nil {
		updates["country"] = *req.Country
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if req.Status != nil {
		switch *req.Status {
		case domain.StatusActive, domain.StatusSuspended, domain.StatusFrozen, domain.StatusClosed:
		default:
			return nil, &domain.ErrValidation{Field: "status", Message: "unknown account status"}
		}
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "no updatable fields provided"}
	}

	user, err := s.ledger.UpdateUser(ctx, userID, updates)
	if err != nil {
		return nil, err
	}
	if req.Status != nil {
		s.logger.Info("account status changed",
			zap.String("user_id", userID),
			zap.String("status", *req.Status))
	}
	return user, nil
}

// DeleteUser removes the user and all dependent records.
func (s *AdminService) DeleteUser(ctx context.Context, userID string) error {
	ctx, span := adminTracer.Start(ctx, "AdminService.DeleteUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if err := s.ledger.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("user_id", userID))
	return nil
}

// ListTransactions returns a page of the global ledger.
func (s *AdminService) ListTransactions(ctx context.Context, page, pageSize int) ([]domain.Transaction, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.ListTransactions")
	defer span.End()

	return s.ledger.ListAllTransactions(ctx, page, pageSize)
}

// DeleteTransaction removes a ledger row without touching balances.
func (s *AdminService) DeleteTransaction(ctx context.Context, txID string) error {
	ctx, span := adminTracer.Start(ctx, "AdminService.DeleteTransaction")
	defer span.End()

	if err := s.ledger.DeleteTransaction(ctx, txID); err != nil {
		return err
	}
	s.logger.Warn("ledger row deleted", zap.String("transaction_id", txID))
	return nil
}

// DashboardStats aggregates the overview numbers, fanning the four
// counts out concurrently.
func (s *AdminService) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.DashboardStats")
	defer span.End()

	if cached, ok := s.statsCache.Get(statsCacheKey); ok {
		s.metrics.IncrCacheHit("stats")
		return &cached, nil
	}
	s.metrics.IncrCacheMiss("stats")

	var stats domain.DashboardStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.ledger.CountUsers(gctx)
		stats.TotalUsers = n
		return err
	})
	g.Go(func() error {
		sum, err := s.ledger.SumBalances(gctx)
		stats.TotalBalance = sum
		return err
	})
	g.Go(func() error {
		n, err := s.ledger.CountTransactions(gctx)
		stats.TotalTransactions = n
		return err
	})
	g.Go(func() error {
		n, err := s.kyc.CountKYCByStatus(gctx, domain.KYCUnderReview)
		stats.PendingKYC = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	stats.ErrorRate = s.metrics.ErrorRate()

	s.statsCache.Set(statsCacheKey, stats)
	return &stats, nil
}
