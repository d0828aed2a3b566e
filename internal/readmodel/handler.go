package readmodel

import (
	"context"
	"fmt"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// Handler routes committed events into the read-model repository, one
// repository method per event type. It runs on the ordered pipeline so
// a stream's updates always see the row its first event inserted.
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Name() string { return "read-model" }

// EventTypes lists every event type the read model consumes.
func (h *Handler) EventTypes() []enums.EventType {
	return []enums.EventType{
		enums.EventEstateCreated,
		enums.EventOperatorAddedToEstate,
		enums.EventOperatorCreated,
		enums.EventMerchantCreated,
		enums.EventOperatorAssigned,
		enums.EventDeviceAddedToMerchant,
		enums.EventContractCreated,
		enums.EventFixedProductAdded,
		enums.EventVariableProductAdded,
		enums.EventProductFeeAdded,
		enums.EventFloatCreated,
		enums.EventFloatCreditPurchased,
		enums.EventFloatDecreased,
		enums.EventTransactionStarted,
		enums.EventAdditionalDataRecorded,
		enums.EventProductDetailsAdded,
		enums.EventTransactionAuthorised,
		enums.EventTransactionDeclined,
		enums.EventLocallyAuthorised,
		enums.EventLocallyDeclined,
		enums.EventTransactionCompleted,
		enums.EventMerchantFeePending,
		enums.EventSettledMerchantFee,
		enums.EventSettlementCreated,
		enums.EventFeeAddedToSettlement,
		enums.EventFeeSettled,
		enums.EventSettlementCompleted,
	}
}

func (h *Handler) Handle(ctx context.Context, envelope events.Envelope) error {
	switch payload := envelope.Payload.(type) {
	case events.EstateCreated:
		return h.repo.AddEstate(ctx, payload)
	case events.OperatorAddedToEstate:
		return h.repo.AddOperatorToEstate(ctx, payload)
	case events.OperatorCreated:
		return h.repo.AddOperator(ctx, payload)
	case events.MerchantCreated:
		return h.repo.AddMerchant(ctx, payload)
	case events.OperatorAssignedToMerchant:
		return h.repo.AssignOperatorToMerchant(ctx, payload)
	case events.DeviceAddedToMerchant:
		return h.repo.AddMerchantDevice(ctx, payload)
	case events.ContractCreated:
		return h.repo.AddContract(ctx, payload)
	case events.FixedValueProductAdded:
		return h.repo.AddFixedValueProduct(ctx, payload)
	case events.VariableValueProductAdded:
		return h.repo.AddVariableValueProduct(ctx, payload)
	case events.TransactionFeeForProductAdded:
		return h.repo.AddContractProductFee(ctx, payload)
	case events.FloatCreatedForTransaction:
		return h.repo.AddFloat(ctx, payload)
	case events.FloatCreditPurchased:
		return h.repo.RecordFloatCreditPurchase(ctx, envelope.EventID, payload)
	case events.FloatDecreasedByTransaction:
		return h.repo.RecordFloatDecrease(ctx, envelope.EventID, payload)
	case events.TransactionHasStarted:
		return h.repo.StartTransaction(ctx, payload)
	case events.AdditionalRequestDataRecorded:
		return h.repo.RecordAdditionalRequestData(ctx, payload)
	case events.ProductDetailsAddedToTransaction:
		return h.repo.AddProductDetails(ctx, payload)
	case events.TransactionAuthorisedByOperator:
		return h.repo.RecordOperatorAuthorisation(ctx, payload)
	case events.TransactionDeclinedByOperator:
		return h.repo.RecordOperatorDecline(ctx, payload)
	case events.TransactionHasBeenLocallyAuthorised:
		return h.repo.RecordLocalAuthorisation(ctx, payload)
	case events.TransactionHasBeenLocallyDeclined:
		return h.repo.RecordLocalDecline(ctx, payload)
	case events.TransactionHasBeenCompleted:
		return h.repo.CompleteTransaction(ctx, payload)
	case events.MerchantFeePendingSettlementAdded:
		return h.repo.AddTransactionFee(ctx, payload, envelope.Timestamp)
	case events.SettledMerchantFeeAdded:
		return h.repo.MarkTransactionFeeSettled(ctx, payload)
	case events.SettlementCreated:
		return h.repo.AddSettlement(ctx, payload)
	case events.MerchantFeeAddedPendingSettlement:
		return h.repo.AddSettlementFee(ctx, payload)
	case events.MerchantFeeSettled:
		return h.repo.MarkSettlementFeeSettled(ctx, payload)
	case events.SettlementCompleted:
		return h.repo.MarkSettlementCompleted(ctx, payload)
	default:
		return fmt.Errorf("read model cannot fold %s", envelope.EventType)
	}
}
