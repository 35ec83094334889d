package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/firstcbu/bank-api/internal/service"
)

// ============================================================
// Virtual cards
// ============================================================

func cardPurchaseHandler(cardsSvc *service.CardsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/cards")
		defer span.End()

		sess := SessionFromContext(ctx)
		card, err := cardsSvc.Purchase(ctx, sess.UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, card)
	}
}

func cardGetHandler(cardsSvc *service.CardsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cards/me")
		defer span.End()

		sess := SessionFromContext(ctx)
		card, err := cardsSvc.Get(ctx, sess.UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, card)
	}
}

func cardFreezeHandler(cardsSvc *service.CardsService, frozen bool, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/cards/freeze")
		defer span.End()

		sess := SessionFromContext(ctx)
		card, err := cardsSvc.SetFrozen(ctx, sess.UserID, frozen)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, card)
	}
}
