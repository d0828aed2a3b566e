package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/estatepay/estatepay-backend/api/responses"
	"github.com/estatepay/estatepay-backend/api/validators"
	"github.com/estatepay/estatepay-backend/internal/commands"
	"github.com/estatepay/estatepay-backend/internal/readmodel"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	pkgerrors "github.com/estatepay/estatepay-backend/pkg/errors"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

type createContractRequest struct {
	EstateID    string `json:"estate_id" validate:"required,uuid"`
	OperatorID  string `json:"operator_id" validate:"required,uuid"`
	Description string `json:"description" validate:"required,min=1"`
}

func CreateContract(svc *commands.ContractService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createContractRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		estateID, err := validators.ParsePathUUID(payload.EstateID, "estate_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		operatorID, err := validators.ParsePathUUID(payload.OperatorID, "operator_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		contractID, err := svc.CreateContract(r.Context(), estateID, operatorID, payload.Description)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"contract_id": contractID.String()})
	}
}

type addProductRequest struct {
	Name        string `json:"name" validate:"required,min=1"`
	DisplayText string `json:"display_text" validate:"required,min=1"`
	// Value is omitted for variable-value products.
	Value *decimal.Decimal `json:"value,omitempty"`
}

func AddContractProduct(svc *commands.ContractService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contractID, err := validators.ParsePathUUID(chi.URLParam(r, "contractId"), "contractId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Value != nil && !payload.Value.IsPositive() {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "value must be positive").WithDetails(map[string]any{"field": "value"}))
			return
		}

		productID, err := svc.AddProduct(r.Context(), commands.AddProductParams{
			ContractID:  contractID,
			Name:        payload.Name,
			DisplayText: payload.DisplayText,
			Value:       payload.Value,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"product_id": productID.String()})
	}
}

type addProductFeeRequest struct {
	Description     string          `json:"description" validate:"required,min=1"`
	CalculationType string          `json:"calculation_type" validate:"required,oneof=percentage fixed"`
	FeeType         string          `json:"fee_type" validate:"required,oneof=merchant service_provider"`
	Value           decimal.Decimal `json:"value" validate:"required"`
}

func AddContractProductFee(svc *commands.ContractService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contractID, err := validators.ParsePathUUID(chi.URLParam(r, "contractId"), "contractId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addProductFeeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		feeID, err := svc.AddProductFee(r.Context(), commands.AddProductFeeParams{
			ContractID:      contractID,
			ProductID:       productID,
			Description:     payload.Description,
			CalculationType: enums.CalculationType(payload.CalculationType),
			FeeType:         enums.FeeType(payload.FeeType),
			Value:           payload.Value,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"fee_id": feeID.String()})
	}
}

func GetContract(repo *readmodel.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contractID, err := validators.ParsePathUUID(chi.URLParam(r, "contractId"), "contractId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		contract, err := repo.GetContract(r.Context(), contractID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, contract)
	}
}

func ListContracts(repo *readmodel.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		estateID, err := validators.ParsePathUUID(chi.URLParam(r, "estateId"), "estateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		contracts, err := repo.GetContracts(r.Context(), estateID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, contracts)
	}
}
