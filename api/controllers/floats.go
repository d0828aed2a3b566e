package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/api/responses"
	"github.com/estatepay/estatepay-backend/api/validators"
	"github.com/estatepay/estatepay-backend/internal/commands"
	"github.com/estatepay/estatepay-backend/internal/readmodel"
	pkgerrors "github.com/estatepay/estatepay-backend/pkg/errors"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

type createFloatRequest struct {
	OperatorID string `json:"operator_id" validate:"required,uuid"`
}

func CreateFloat(svc *commands.FloatService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := validators.ParsePathUUID(chi.URLParam(r, "merchantId"), "merchantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createFloatRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		operatorID, err := validators.ParsePathUUID(payload.OperatorID, "operator_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		floatID, err := svc.CreateFloat(r.Context(), merchantID, operatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"float_id": floatID.String()})
	}
}

type purchaseCreditRequest struct {
	OperatorID string          `json:"operator_id" validate:"required,uuid"`
	Reference  string          `json:"reference" validate:"required,min=1"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
}

func PurchaseFloatCredit(svc *commands.FloatService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := validators.ParsePathUUID(chi.URLParam(r, "merchantId"), "merchantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload purchaseCreditRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		operatorID, err := validators.ParsePathUUID(payload.OperatorID, "operator_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !payload.Amount.IsPositive() {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive").WithDetails(map[string]any{"field": "amount"}))
			return
		}

		if err := svc.PurchaseCredit(r.Context(), merchantID, operatorID, payload.Reference, payload.Amount); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "credit purchased"})
	}
}

func GetFloat(repo *readmodel.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := validators.ParsePathUUID(chi.URLParam(r, "merchantId"), "merchantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		operatorID, err := validators.ParsePathUUID(chi.URLParam(r, "operatorId"), "operatorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		float, err := repo.GetFloat(r.Context(), merchantID, operatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, float)
	}
}
