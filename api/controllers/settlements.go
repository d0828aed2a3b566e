package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/estatepay/estatepay-backend/api/responses"
	"github.com/estatepay/estatepay-backend/api/validators"
	"github.com/estatepay/estatepay-backend/internal/commands"
	"github.com/estatepay/estatepay-backend/internal/readmodel"
	pkgerrors "github.com/estatepay/estatepay-backend/pkg/errors"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

type processSettlementRequest struct {
	SettlementDate string `json:"settlement_date" validate:"required,datetime=2006-01-02"`
	EstateID       string `json:"estate_id" validate:"required,uuid"`
	MerchantID     string `json:"merchant_id" validate:"required,uuid"`
}

func ProcessSettlement(svc *commands.SettlementService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload processSettlementRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		settlementDate, err := time.Parse("2006-01-02", payload.SettlementDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "settlement_date must be YYYY-MM-DD").WithDetails(map[string]any{"field": "settlement_date"}))
			return
		}
		estateID, err := validators.ParsePathUUID(payload.EstateID, "estate_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		merchantID, err := validators.ParsePathUUID(payload.MerchantID, "merchant_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := svc.ProcessSettlement(r.Context(), settlementDate, merchantID, estateID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"settlement_id": outcome.SettlementID.String(),
			"fees_settled":  outcome.FeesSettled,
			"total_settled": outcome.TotalSettled,
		})
	}
}

// GetPendingSettlement serves an in-flight settlement from the
// aggregate itself, ahead of the read model's projection lag.
func GetPendingSettlement(svc *commands.SettlementService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settlementDate, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD").WithDetails(map[string]any{"field": "date"}))
			return
		}
		estateID, err := validators.ParsePathUUID(r.URL.Query().Get("estate_id"), "estate_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		merchantID, err := validators.ParsePathUUID(r.URL.Query().Get("merchant_id"), "merchant_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pending, err := svc.GetPendingSettlement(r.Context(), settlementDate, merchantID, estateID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fees := make([]map[string]any, 0, len(pending.PendingFees))
		for _, fee := range pending.PendingFees {
			fees = append(fees, map[string]any{
				"transaction_id": fee.TransactionID.String(),
				"fee_id":         fee.FeeID.String(),
				"value":          fee.Value,
			})
		}
		responses.WriteSuccess(w, map[string]any{
			"settlement_id":     pending.SettlementID.String(),
			"estate_id":         pending.EstateID.String(),
			"merchant_id":       pending.MerchantID.String(),
			"settlement_date":   pending.SettlementDate.UTC().Format("2006-01-02"),
			"pending_fee_count": pending.PendingFeeCount,
			"pending_total":     pending.PendingTotal,
			"pending_fees":      fees,
		})
	}
}

func GetSettlement(repo *readmodel.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settlementID, err := validators.ParsePathUUID(chi.URLParam(r, "settlementId"), "settlementId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		settlement, err := repo.GetSettlement(r.Context(), settlementID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settlement)
	}
}

func ListSettlements(repo *readmodel.Repository, logg *logger.Logger) http.HandlerFunc {
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

		settlements, err := repo.GetSettlements(r.Context(), estateID, merchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settlements)
	}
}
