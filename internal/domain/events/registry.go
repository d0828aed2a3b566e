package events

import (
	"encoding/json"
	"fmt"

	"github.com/estatepay/estatepay-backend/pkg/db/models"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

type decoderFunc func(payload json.RawMessage) (Payload, error)

// Registry maps every known event type discriminator to its payload
// decoder. The table is closed: it is built once by NewRegistry and
// never mutated afterwards, so adding an event type means adding a
// registry entry alongside the payload struct.
type Registry struct {
	decoders map[enums.EventType]decoderFunc
}

func decodeAs[T Payload](payload json.RawMessage) (Payload, error) {
	var decoded T
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// NewRegistry builds the full decoder table covering every event type
// the system emits.
func NewRegistry() *Registry {
	return &Registry{decoders: map[enums.EventType]decoderFunc{
		enums.EventEstateCreated:          decodeAs[EstateCreated],
		enums.EventOperatorAddedToEstate:  decodeAs[OperatorAddedToEstate],
		enums.EventOperatorCreated:        decodeAs[OperatorCreated],
		enums.EventMerchantCreated:        decodeAs[MerchantCreated],
		enums.EventOperatorAssigned:       decodeAs[OperatorAssignedToMerchant],
		enums.EventDeviceAddedToMerchant:  decodeAs[DeviceAddedToMerchant],
		enums.EventManualDepositMade:      decodeAs[ManualDepositMade],
		enums.EventWithdrawalMade:         decodeAs[WithdrawalMade],
		enums.EventContractCreated:        decodeAs[ContractCreated],
		enums.EventFixedProductAdded:      decodeAs[FixedValueProductAdded],
		enums.EventVariableProductAdded:   decodeAs[VariableValueProductAdded],
		enums.EventProductFeeAdded:        decodeAs[TransactionFeeForProductAdded],
		enums.EventTransactionStarted:     decodeAs[TransactionHasStarted],
		enums.EventAdditionalDataRecorded: decodeAs[AdditionalRequestDataRecorded],
		enums.EventProductDetailsAdded:    decodeAs[ProductDetailsAddedToTransaction],
		enums.EventTransactionAuthorised:  decodeAs[TransactionAuthorisedByOperator],
		enums.EventTransactionDeclined:    decodeAs[TransactionDeclinedByOperator],
		enums.EventLocallyAuthorised:      decodeAs[TransactionHasBeenLocallyAuthorised],
		enums.EventLocallyDeclined:        decodeAs[TransactionHasBeenLocallyDeclined],
		enums.EventTransactionCompleted:   decodeAs[TransactionHasBeenCompleted],
		enums.EventMerchantFeePending:     decodeAs[MerchantFeePendingSettlementAdded],
		enums.EventSettledMerchantFee:     decodeAs[SettledMerchantFeeAdded],
		enums.EventSettlementCreated:      decodeAs[SettlementCreated],
		enums.EventFeeAddedToSettlement:   decodeAs[MerchantFeeAddedPendingSettlement],
		enums.EventFeeSettled:             decodeAs[MerchantFeeSettled],
		enums.EventSettlementProcessing:   decodeAs[SettlementProcessingStarted],
		enums.EventSettlementCompleted:    decodeAs[SettlementCompleted],
		enums.EventVoucherGenerated:       decodeAs[VoucherGenerated],
		enums.EventVoucherIssued:          decodeAs[VoucherIssued],
		enums.EventVoucherFullyRedeemed:   decodeAs[VoucherFullyRedeemed],
		enums.EventFloatCreated:           decodeAs[FloatCreatedForTransaction],
		enums.EventFloatCreditPurchased:   decodeAs[FloatCreditPurchased],
		enums.EventFloatDecreased:         decodeAs[FloatDecreasedByTransaction],
		enums.EventReconciliationStarted:  decodeAs[ReconciliationHasStarted],
		enums.EventOverallTotalsRecorded:  decodeAs[OverallTotalsRecorded],
		enums.EventReconciliationAuthed:   decodeAs[ReconciliationHasBeenLocallyAuthorised],
		enums.EventReconciliationDeclined: decodeAs[ReconciliationHasBeenLocallyDeclined],
		enums.EventReconciliationDone:     decodeAs[ReconciliationHasCompleted],
	}}
}

// DecodePayload runs the decoder registered for the given discriminator.
func (r *Registry) DecodePayload(eventType enums.EventType, payload json.RawMessage) (Payload, error) {
	decoder, ok := r.decoders[eventType]
	if !ok {
		return nil, errors.New(errors.CodeConfiguration, fmt.Sprintf("decoder not registered for %s", eventType))
	}
	decoded, err := decoder(payload)
	if err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, fmt.Sprintf("decode %s payload", eventType))
	}
	return decoded, nil
}

// Decode turns a persisted record into a typed envelope.
func (r *Registry) Decode(record models.EventRecord) (Envelope, error) {
	payload, err := r.DecodePayload(record.EventType, record.Payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		StreamID:      record.StreamID,
		AggregateType: record.AggregateType,
		EventID:       record.EventID,
		EventType:     record.EventType,
		Version:       record.Version,
		Sequence:      record.Sequence,
		Timestamp:     record.Timestamp,
		Payload:       payload,
	}, nil
}
