package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/service"
)

// ============================================================
// Account and money movement
// ============================================================

func getAccountHandler(bankSvc *service.BankingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/me")
		defer span.End()

		sess := SessionFromContext(ctx)
		user, err := bankSvc.GetAccount(ctx, sess.UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

func statementHandler(bankSvc *service.BankingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/me/transactions")
		defer span.End()

		sess := SessionFromContext(ctx)
		page, pageSize := parsePagination(r)
		txs, err := bankSvc.Statement(ctx, sess.UserID, page, pageSize)
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

func transferHandler(bankSvc *service.BankingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transfers")
		defer span.End()

		var req domain.TransferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := SessionFromContext(ctx)
		result, err := bankSvc.Transfer(ctx, sess.UserID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func internationalTransferHandler(bankSvc *service.BankingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transfers/international")
		defer span.End()

		var req domain.InternationalTransferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := SessionFromContext(ctx)
		user, err := bankSvc.InternationalTransfer(ctx, sess.UserID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusAccepted, map[string]any{
			"status":  domain.TxStatusPendingReview,
			"balance": user.Balance,
		})
	}
}

func billCategoriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"categories": domain.BillCategories})
	}
}

func billPayHandler(bankSvc *service.BankingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills/pay")
		defer span.End()

		var req domain.BillPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := SessionFromContext(ctx)
		user, err := bankSvc.PayBill(ctx, sess.UserID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "paid",
			"balance": user.Balance,
		})
	}
}
