package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/firstcbu/bank-api/internal/infra/observability"
	"github.com/firstcbu/bank-api/internal/service"
)

var tracer = otel.Tracer("handler")

// Pinger reports storage connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles the service layer for the router.
type Services struct {
	Auth    *service.AuthService
	Banking *service.BankingService
	Cards   *service.CardsService
	KYC     *service.KYCService
	Support *service.SupportService
	Admin   *service.AdminService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, db Pinger, corsOrigins []string, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"https://*", "http://*"}
	}

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.MetricsMiddleware(metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(db))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Public auth endpoints
		r.Post("/auth/signup", authSignupHandler(svcs.Auth, logger))
		r.Post("/auth/login", authLoginHandler(svcs.Auth, logger))
		r.Post("/auth/refresh", authRefreshHandler(svcs.Auth, logger))

		// Authenticated customer endpoints
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))

			r.Post("/auth/logout", authLogoutHandler(svcs.Auth, logger))
			r.Post("/auth/password", authChangePasswordHandler(svcs.Auth, logger))

			r.Get("/me", getAccountHandler(svcs.Banking, logger))
			r.Get("/me/transactions", statementHandler(svcs.Banking, logger))

			r.Post("/transfers", transferHandler(svcs.Banking, logger))
			r.Post("/transfers/international", internationalTransferHandler(svcs.Banking, logger))

			r.Get("/bills/categories", billCategoriesHandler())
			r.Post("/bills/pay", billPayHandler(svcs.Banking, logger))

			r.Post("/cards", cardPurchaseHandler(svcs.Cards, logger))
			r.Get("/cards/me", cardGetHandler(svcs.Cards, logger))
			r.Post("/cards/freeze", cardFreezeHandler(svcs.Cards, true, logger))
			r.Post("/cards/unfreeze", cardFreezeHandler(svcs.Cards, false, logger))

			r.Post("/kyc/documents", kycUploadHandler(svcs.KYC, logger))
			r.Post("/kyc", kycSubmitHandler(svcs.KYC, logger))
			r.Get("/kyc/status", kycStatusHandler(svcs.KYC, logger))

			r.Post("/support/messages", supportPostHandler(svcs.Support, logger))
			r.Get("/support/messages", supportHistoryHandler(svcs.Support, logger))
		})

		// Admin console endpoints
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))
			r.Use(AdminOnlyMiddleware(logger))

			r.Post("/admin/deposits", adminDepositHandler(svcs.Banking, logger))
			r.Post("/admin/debits", adminDebitHandler(svcs.Banking, logger))

			r.Get("/admin/users", adminListUsersHandler(svcs.Admin, logger))
			r.Get("/admin/users/{userId}", adminGetUserHandler(svcs.Admin, logger))
			r.Patch("/admin/users/{userId}", adminUpdateUserHandler(svcs.Admin, logger))
			r.Delete("/admin/users/{userId}", adminDeleteUserHandler(svcs.Admin, logger))

			r.Get("/admin/transactions", adminListTransactionsHandler(svcs.Admin, logger))
			r.Delete("/admin/transactions/{txId}", adminDeleteTransactionHandler(svcs.Admin, logger))

			r.Get("/admin/kyc", adminListKYCHandler(svcs.KYC, logger))
			r.Post("/admin/kyc/{userId}/review", adminReviewKYCHandler(svcs.KYC, logger))

			r.Get("/admin/cards", adminListCardsHandler(svcs.Cards, logger))
			r.Post("/admin/cards/{cardId}/status", adminCardStatusHandler(svcs.Cards, logger))
			r.Delete("/admin/cards/{cardId}", adminDeleteCardHandler(svcs.Cards, logger))

			r.Get("/admin/users/{userId}/chat", adminChatHistoryHandler(svcs.Support, logger))
			r.Post("/admin/users/{userId}/chat", adminChatReplyHandler(svcs.Support, logger))

			r.Get("/admin/stats", adminStatsHandler(svcs.Admin, logger))
		})
	})

	return r
}

func healthzHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		code := http.StatusOK
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		writeJSON(w, code, map[string]string{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
