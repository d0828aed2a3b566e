package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/estatepay/estatepay-backend/api/responses"
	"github.com/estatepay/estatepay-backend/api/validators"
	"github.com/estatepay/estatepay-backend/internal/readmodel"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

func GetTransaction(repo *readmodel.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transactionID, err := validators.ParsePathUUID(chi.URLParam(r, "transactionId"), "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		transaction, err := repo.GetTransaction(r.Context(), transactionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transaction)
	}
}

func ListTransactions(repo *readmodel.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		estateID, err := validators.ParsePathUUID(chi.URLParam(r, "estateId"), "estateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		merchantID, err := validators.ParsePathUUID(chi.URLParam(r, "merchantId"), "merchantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		transactions, err := repo.GetTransactions(r.Context(), estateID, merchantID, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transactions)
	}
}
