package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/firstcbu/bank-api/internal/config"
	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/handler"
	"github.com/firstcbu/bank-api/internal/infra/cache"
	"github.com/firstcbu/bank-api/internal/infra/imagehost"
	"github.com/firstcbu/bank-api/internal/infra/mail"
	"github.com/firstcbu/bank-api/internal/infra/observability"
	"github.com/firstcbu/bank-api/internal/infra/postgres"
	"github.com/firstcbu/bank-api/internal/infra/ratelimit"
	"github.com/firstcbu/bank-api/internal/infra/resilience"
	"github.com/firstcbu/bank-api/internal/port"
	"github.com/firstcbu/bank-api/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("jwt_refresh_ttl", cfg.JWTRefreshTTL),
		zap.Float64("card_price", cfg.CardPrice),
	)

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "bank-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Database ---
	ctx := context.Background()
	store, err := postgres.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	ledgerStore := postgres.NewLedgerStore(store)
	authStore := postgres.NewAuthStore(store)
	cardStore := postgres.NewCardStore(store)
	kycStore := postgres.NewKYCStore(store)
	chatStore := postgres.NewChatStore(store)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("external-apis")
	uploadBulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- External clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var mailer port.Mailer
	if cfg.EmailAPIURL != "" {
		mailer = mail.NewClient(httpClient, cfg.EmailAPIURL, cb, resilienceCfg)
	} else {
		logger.Warn("mail API not configured, notification emails disabled")
	}

	var images port.ImageHost
	if cfg.ImageUploadURL != "" {
		images = imagehost.NewClient(httpClient, cfg.ImageUploadURL, cfg.ImageUploadPreset, cb, resilienceCfg)
	} else {
		logger.Warn("image host not configured, KYC document upload disabled")
	}

	// --- Rate limiter ---
	limiter := ratelimit.New(cfg.RedisAddr, cfg.RateLimit, cfg.RateWindow, logger)
	defer limiter.Close()
	if cfg.RedisAddr == "" {
		logger.Warn("Redis not configured, transfer rate limiting disabled")
	}

	// --- Cache ---
	statsCache := cache.New[domain.DashboardStats](cfg.CacheTTL)

	// --- Services ---
	authSvc := service.NewAuthService(ledgerStore, authStore, mailer,
		cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, metrics, logger)
	bankSvc := service.NewBankingService(ledgerStore, limiter, mailer, metrics, logger)
	cardsSvc := service.NewCardsService(cardStore, ledgerStore, cfg.CardPrice, metrics, logger)
	kycSvc := service.NewKYCService(kycStore, ledgerStore, images, mailer, uploadBulkhead, metrics, logger)
	supportSvc := service.NewSupportService(chatStore, ledgerStore, logger)
	adminSvc := service.NewAdminService(ledgerStore, kycStore, statsCache, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Auth:    authSvc,
		Banking: bankSvc,
		Cards:   cardsSvc,
		KYC:     kycSvc,
		Support: supportSvc,
		Admin:   adminSvc,
	}, store, cfg.CORSOrigins, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
