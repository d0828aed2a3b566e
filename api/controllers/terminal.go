package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/api/responses"
	"github.com/estatepay/estatepay-backend/api/validators"
	"github.com/estatepay/estatepay-backend/internal/commands"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

// transactionOutcomeResponse is the wire shape shared by every
// terminal-facing operation. Terminals branch on response_code alone.
type transactionOutcomeResponse struct {
	TransactionID   string          `json:"transaction_id"`
	ResponseCode    string          `json:"response_code"`
	ResponseMessage string          `json:"response_message,omitempty"`
	Authorised      bool            `json:"authorised"`
	Amount          decimal.Decimal `json:"amount"`
}

func outcomeResponse(outcome commands.TransactionOutcome) transactionOutcomeResponse {
	return transactionOutcomeResponse{
		TransactionID:   outcome.TransactionID.String(),
		ResponseCode:    outcome.ResponseCode,
		ResponseMessage: outcome.ResponseMessage,
		Authorised:      outcome.Authorised,
		Amount:          outcome.Amount,
	}
}

type logonRequest struct {
	EstateID          string `json:"estate_id" validate:"required,uuid"`
	MerchantID        string `json:"merchant_id" validate:"required,uuid"`
	DeviceIdentifier  string `json:"device_identifier" validate:"required,min=1"`
	TransactionNumber int64  `json:"transaction_number" validate:"required,gt=0"`
}

func TerminalLogon(svc *commands.TransactionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload logonRequest
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

		outcome, err := svc.ProcessLogon(r.Context(), commands.LogonParams{
			EstateID:          estateID,
			MerchantID:        merchantID,
			DeviceIdentifier:  payload.DeviceIdentifier,
			TransactionNumber: payload.TransactionNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, outcomeResponse(outcome))
	}
}

type saleRequest struct {
	EstateID          string            `json:"estate_id" validate:"required,uuid"`
	MerchantID        string            `json:"merchant_id" validate:"required,uuid"`
	DeviceIdentifier  string            `json:"device_identifier" validate:"required,min=1"`
	TransactionNumber int64             `json:"transaction_number" validate:"required,gt=0"`
	ContractID        string            `json:"contract_id" validate:"required,uuid"`
	ProductID         string            `json:"product_id" validate:"required,uuid"`
	Amount            *decimal.Decimal  `json:"amount,omitempty"`
	AdditionalData    map[string]string `json:"additional_data,omitempty"`
}

func TerminalSale(svc *commands.TransactionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload saleRequest
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
		contractID, err := validators.ParsePathUUID(payload.ContractID, "contract_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParsePathUUID(payload.ProductID, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := svc.ProcessSale(r.Context(), commands.SaleParams{
			EstateID:          estateID,
			MerchantID:        merchantID,
			DeviceIdentifier:  payload.DeviceIdentifier,
			TransactionNumber: payload.TransactionNumber,
			ContractID:        contractID,
			ProductID:         productID,
			Amount:            payload.Amount,
			AdditionalData:    payload.AdditionalData,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, outcomeResponse(outcome))
	}
}

type reconcileRequest struct {
	EstateID         string          `json:"estate_id" validate:"required,uuid"`
	MerchantID       string          `json:"merchant_id" validate:"required,uuid"`
	DeviceIdentifier string          `json:"device_identifier" validate:"required,min=1"`
	SaleCount        int             `json:"sale_count" validate:"min=0"`
	SaleValue        decimal.Decimal `json:"sale_value"`
}

func TerminalReconcile(svc *commands.ReconciliationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload reconcileRequest
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

		outcome, err := svc.ProcessReconciliation(r.Context(), commands.ReconcileParams{
			EstateID:         estateID,
			MerchantID:       merchantID,
			DeviceIdentifier: payload.DeviceIdentifier,
			SaleCount:        payload.SaleCount,
			SaleValue:        payload.SaleValue,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, outcomeResponse(outcome))
	}
}
