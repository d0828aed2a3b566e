package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/estatepay/estatepay-backend/api/responses"
	"github.com/estatepay/estatepay-backend/api/validators"
	"github.com/estatepay/estatepay-backend/internal/commands"
	"github.com/estatepay/estatepay-backend/internal/readmodel"
	"github.com/estatepay/estatepay-backend/pkg/logger"
)

type createEstateRequest struct {
	Name      string `json:"name" validate:"required,min=1"`
	Reference string `json:"reference" validate:"required,min=1"`
}

func CreateEstate(svc *commands.EstateService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createEstateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		estateID, err := svc.CreateEstate(r.Context(), commands.CreateEstateParams{
			Name:      payload.Name,
			Reference: payload.Reference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"estate_id": estateID.String()})
	}
}

type createOperatorRequest struct {
	Name                        string `json:"name" validate:"required,min=1"`
	RequireCustomMerchantNumber bool   `json:"require_custom_merchant_number"`
	RequireCustomTerminalNumber bool   `json:"require_custom_terminal_number"`
}

func CreateOperator(svc *commands.EstateService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOperatorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		operatorID, err := svc.CreateOperator(r.Context(), commands.CreateOperatorParams{
			Name:                        payload.Name,
			RequireCustomMerchantNumber: payload.RequireCustomMerchantNumber,
			RequireCustomTerminalNumber: payload.RequireCustomTerminalNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"operator_id": operatorID.String()})
	}
}

type addEstateOperatorRequest struct {
	OperatorID string `json:"operator_id" validate:"required,uuid"`
}

func AddOperatorToEstate(svc *commands.EstateService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		estateID, err := validators.ParsePathUUID(chi.URLParam(r, "estateId"), "estateId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addEstateOperatorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		operatorID, err := validators.ParsePathUUID(payload.OperatorID, "operator_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.AddOperatorToEstate(r.Context(), estateID, operatorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "operator added"})
	}
}

func ListEstates(repo *readmodel.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		estates, err := repo.GetEstates(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, estates)
	}
}
