package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/service"
)

// ============================================================
// Support chat
// ============================================================

func supportPostHandler(supportSvc *service.SupportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/support/messages")
		defer span.End()

		var req domain.ChatPostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := SessionFromContext(ctx)
		msg, err := supportSvc.Post(ctx, sess.UserID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, msg)
	}
}

func supportHistoryHandler(supportSvc *service.SupportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/support/messages")
		defer span.End()

		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, _ = strconv.Atoi(v)
		}

		sess := SessionFromContext(ctx)
		msgs, err := supportSvc.History(ctx, sess.UserID, limit)
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
