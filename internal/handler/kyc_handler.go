package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/firstcbu/bank-api/internal/domain"
	"github.com/firstcbu/bank-api/internal/service"
)

// Upload cap for KYC documents.
const maxUploadBytes = 10 << 20

// ============================================================
// KYC
// ============================================================

func kycUploadHandler(kycSvc *service.KYCService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/kyc/documents")
		defer span.End()

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart body or file too large")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file field is required")
			return
		}
		defer file.Close()

		url, err := kycSvc.UploadDocument(ctx, header.Filename, file)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"url": url})
	}
}

func kycSubmitHandler(kycSvc *service.KYCService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/kyc")
		defer span.End()

		var req domain.KYCSubmission
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess := SessionFromContext(ctx)
		rec, err := kycSvc.Submit(ctx, sess.UserID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, rec)
	}
}

func kycStatusHandler(kycSvc *service.KYCService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/kyc/status")
		defer span.End()

		sess := SessionFromContext(ctx)
		rec, err := kycSvc.Status(ctx, sess.UserID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, rec)
	}
}
