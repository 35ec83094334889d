package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/service"
)

// ============================================================
// Admin console
// ============================================================

func adminDepositHandler(bankSvc *service.BankingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/deposits")
		defer span.End()

		var req domain.DepositRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := bankSvc.Deposit(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

func adminDebitHandler(bankSvc *service.BankingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/debits")
		defer span.End()

		var req domain.DebitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := bankSvc.Debit(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

func adminListUsersHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/users")
		defer span.End()

		// Exact-match lookup when a search query is present.
		accountNumber := r.URL.Query().Get("account_number")
		email := r.URL.Query().Get("email")
		if accountNumber != "" || email != "" {
			user, err := adminSvc.FindUser(ctx, accountNumber, email)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"users": []domain.User{*user}})
			return
		}

		page, pageSize := parsePagination(r)
		users, err := adminSvc.ListUsers(ctx, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if users == nil {
			users = []domain.User{}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"users":     users,
			"page":      page,
			"page_size": pageSize,
		})
	}
}

func adminGetUserHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/users/{userId}")
		defer span.End()

		user, err := adminSvc.GetUser(ctx, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

func adminUpdateUserHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/admin/users/{userId}")
		defer span.End()

		var req domain.UserUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := adminSvc.UpdateUser(ctx, chi.URLParam(r, "userId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

func adminDeleteUserHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/admin/users/{userId}")
		defer span.End()

		if err := adminSvc.DeleteUser(ctx, chi.URLParam(r, "userId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func adminListTransactionsHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/transactions")
		defer span.End()

		page, pageSize := parsePagination(r)
		txs, err := adminSvc.ListTransactions(ctx, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if txs == nil {
			txs = []domain.Transaction{}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"transactions": txs,
			"page":         page,
			"page_size":    pageSize,
		})
	}
}

func adminDeleteTransactionHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/admin/transactions/{txId}")
		defer span.End()

		if err := adminSvc.DeleteTransaction(ctx, chi.URLParam(r, "txId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func adminStatsHandler(adminSvc *service.AdminService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/stats")
		defer span.End()

		stats, err := adminSvc.DashboardStats(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, stats)
	}
}

func adminListKYCHandler(kycSvc *service.KYCService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/kyc")
		defer span.End()

		page, pageSize := parsePagination(r)
		recs, err := kycSvc.ListPending(ctx, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if recs == nil {
			recs = []domain.KYCRecord{}
		}

		writeJSON(w, http.StatusOK, map[string]any{"submissions": recs})
	}
}

func adminReviewKYCHandler(kycSvc *service.KYCService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/kyc/{userId}/review")
		defer span.End()

		var req domain.KYCReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := kycSvc.Review(ctx, chi.URLParam(r, "userId"), &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
	}
}

func adminListCardsHandler(cardsSvc *service.CardsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/cards")
		defer span.End()

		page, pageSize := parsePagination(r)
		cards, err := cardsSvc.List(ctx, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if cards == nil {
			cards = []domain.Card{}
		}

		writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
	}
}

func adminCardStatusHandler(cardsSvc *service.CardsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/cards/{cardId}/status")
		defer span.End()

		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := cardsSvc.SetStatus(ctx, chi.URLParam(r, "cardId"), req.Status); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
	}
}

func adminDeleteCardHandler(cardsSvc *service.CardsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/admin/cards/{cardId}")
		defer span.End()

		if err := cardsSvc.Delete(ctx, chi.URLParam(r, "cardId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func adminChatHistoryHandler(supportSvc *service.SupportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/users/{userId}/chat")
		defer span.End()

		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, _ = strconv.Atoi(v)
		}

		msgs, err := supportSvc.History(ctx, chi.URLParam(r, "userId"), limit)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if msgs == nil {
			msgs = []domain.ChatMessage{}
		}

		writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
	}
}

func adminChatReplyHandler(supportSvc *service.SupportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/users/{userId}/chat")
		defer span.End()

		var req domain.ChatPostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		msg, err := supportSvc.Reply(ctx, chi.URLParam(r, "userId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, msg)
	}
}
