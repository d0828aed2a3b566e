package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/api/responses"
	"github.com/estatepay/estatepay-backend/api/validators"
	"github.com/estatepay/estatepay-backend/internal/commands"
	"github.com/estatepay/estatepay-backend/internal/projections/merchantbalance"
	"github.com/estatepay/estatepay-backend/internal/readmodel"
	pkgerrors "github.com/estatepay/estatepay-backend/pkg/errors"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

type createMerchantRequest struct {
	EstateID string `json:"estate_id" validate:"required,uuid"`
	Name     string `json:"name" validate:"required,min=1"`
}

func CreateMerchant(svc *commands.MerchantService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createMerchantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		estateID, err := validators.ParsePathUUID(payload.EstateID, "estate_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		merchantID, err := svc.CreateMerchant(r.Context(), estateID, payload.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"merchant_id": merchantID.String()})
	}
}

type assignOperatorRequest struct {
	OperatorID     string `json:"operator_id" validate:"required,uuid"`
	MerchantNumber string `json:"merchant_number"`
	TerminalNumber string `json:"terminal_number"`
}

func AssignOperatorToMerchant(svc *commands.MerchantService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := validators.ParsePathUUID(chi.URLParam(r, "merchantId"), "merchantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignOperatorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		operatorID, err := validators.ParsePathUUID(payload.OperatorID, "operator_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.AssignOperator(r.Context(), commands.AssignOperatorParams{
			MerchantID:     merchantID,
			OperatorID:     operatorID,
			MerchantNumber: payload.MerchantNumber,
			TerminalNumber: payload.TerminalNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "operator assigned"})
	}
}

type addDeviceRequest struct {
	DeviceIdentifier string `json:"device_identifier" validate:"required,min=1"`
}

func AddMerchantDevice(svc *commands.MerchantService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := validators.ParsePathUUID(chi.URLParam(r, "merchantId"), "merchantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addDeviceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deviceID, err := svc.AddDevice(r.Context(), merchantID, payload.DeviceIdentifier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"device_id": deviceID.String()})
	}
}

type balanceMovementRequest struct {
	Reference string          `json:"reference" validate:"required,min=1"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
}

func (b balanceMovementRequest) validateAmount() error {
	if !b.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive").WithDetails(map[string]any{"field": "amount"})
	}
	return nil
}

func MakeManualDeposit(svc *commands.MerchantService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := validators.ParsePathUUID(chi.URLParam(r, "merchantId"), "merchantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload balanceMovementRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := payload.validateAmount(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		depositID, err := svc.MakeManualDeposit(r.Context(), merchantID, payload.Reference, payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"deposit_id": depositID.String()})
	}
}

func MakeWithdrawal(svc *commands.MerchantService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := validators.ParsePathUUID(chi.URLParam(r, "merchantId"), "merchantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload balanceMovementRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := payload.validateAmount(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		withdrawalID, err := svc.MakeWithdrawal(r.Context(), merchantID, payload.Reference, payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"withdrawal_id": withdrawalID.String()})
	}
}

func ListMerchants(repo *readmodel.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		estateID, err := validators.ParsePathUUID(chi.URLParam(r, "estateId"), "estateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		merchants, err := repo.GetMerchants(r.Context(), estateID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, merchants)
	}
}

func ListMerchantDevices(repo *readmodel.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID, err := validators.ParsePathUUID(chi.URLParam(r, "merchantId"), "merchantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		devices, err := repo.GetMerchantDevices(r.Context(), merchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, devices)
	}
}

// MerchantBalance serves the projected balance snapshot with recent
// history.
func MerchantBalance(balances merchantbalance.Repository, logg *logger.Logger) http.HandlerFunc {
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
		limit, err := validators.ParseQueryInt(r, "history_limit", 20, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := balances.Load(r.Context(), estateID, merchantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		history, err := balances.History(r.Context(), estateID, merchantID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"balance": snapshot,
			"history": history,
		})
	}
}
