package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/api/responses"
	"github.com/estatepay/estatepay-backend/api/validators"
	"github.com/estatepay/estatepay-backend/internal/commands"
	"github.com/estatepay/estatepay-backend/internal/projections/voucher"
	pkgerrors "github.com/estatepay/estatepay-backend/pkg/errors"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

type generateVoucherRequest struct {
	EstateID    string          `json:"estate_id" validate:"required,uuid"`
	MerchantID  string          `json:"merchant_id" validate:"required,uuid"`
	VoucherCode string          `json:"voucher_code" validate:"required,min=1"`
	Value       decimal.Decimal `json:"value" validate:"required"`
}

func GenerateVoucher(svc *commands.VoucherService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload generateVoucherRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
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
		if !payload.Value.IsPositive() {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "value must be positive").WithDetails(map[string]any{"field": "value"}))
			return
		}

		voucherID, err := svc.GenerateVoucher(r.Context(), commands.GenerateVoucherParams{
			EstateID:    estateID,
			MerchantID:  merchantID,
			VoucherCode: payload.VoucherCode,
			Value:       payload.Value,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"voucher_id": voucherID.String()})
	}
}

type issueVoucherRequest struct {
	TransactionID string `json:"transaction_id" validate:"required,uuid"`
}

func IssueVoucher(svc *commands.VoucherService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		voucherID, err := validators.ParsePathUUID(chi.URLParam(r, "voucherId"), "voucherId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload issueVoucherRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		transactionID, err := validators.ParsePathUUID(payload.TransactionID, "transaction_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.IssueVoucher(r.Context(), voucherID, transactionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "voucher issued"})
	}
}

func RedeemVoucher(svc *commands.VoucherService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		voucherID, err := validators.ParsePathUUID(chi.URLParam(r, "voucherId"), "voucherId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RedeemVoucher(r.Context(), voucherID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "voucher redeemed"})
	}
}

// LookupVoucher finds a voucher projection by its printed code.
func LookupVoucher(repo voucher.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(r.URL.Query().Get("code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "code query parameter is required").WithDetails(map[string]any{"field": "code"}))
			return
		}

		projection, err := repo.FindByCode(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, projection)
	}
}
