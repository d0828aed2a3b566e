package enums

import "fmt"

// EventType is the wire discriminator carried in every event record.
type EventType string

const (
	EventEstateCreated          EventType = "estate_created"
	EventOperatorAddedToEstate  EventType = "operator_added_to_estate"
	EventMerchantCreated        EventType = "merchant_created"
	EventOperatorAssigned       EventType = "operator_assigned_to_merchant"
	EventDeviceAddedToMerchant  EventType = "device_added_to_merchant"
	EventManualDepositMade      EventType = "manual_deposit_made"
	EventWithdrawalMade         EventType = "withdrawal_made"
	EventContractCreated        EventType = "contract_created"
	EventFixedProductAdded      EventType = "fixed_value_product_added"
	EventVariableProductAdded   EventType = "variable_value_product_added"
	EventProductFeeAdded        EventType = "transaction_fee_for_product_added"
	EventOperatorCreated        EventType = "operator_created"
	EventTransactionStarted     EventType = "transaction_has_started"
	EventAdditionalDataRecorded EventType = "additional_request_data_recorded"
	EventProductDetailsAdded    EventType = "product_details_added_to_transaction"
	EventTransactionAuthorised  EventType = "transaction_authorised_by_operator"
	EventTransactionDeclined    EventType = "transaction_declined_by_operator"
	EventLocallyAuthorised      EventType = "transaction_has_been_locally_authorised"
	EventLocallyDeclined        EventType = "transaction_has_been_locally_declined"
	EventTransactionCompleted   EventType = "transaction_has_been_completed"
	EventMerchantFeePending     EventType = "merchant_fee_pending_settlement_added"
	EventSettledMerchantFee     EventType = "settled_merchant_fee_added"
	EventSettlementCreated      EventType = "settlement_created"
	EventFeeAddedToSettlement   EventType = "merchant_fee_added_pending_settlement"
	EventFeeSettled             EventType = "merchant_fee_settled"
	EventSettlementProcessing   EventType = "settlement_processing_started"
	EventSettlementCompleted    EventType = "settlement_completed"
	EventVoucherGenerated       EventType = "voucher_generated"
	EventVoucherIssued          EventType = "voucher_issued"
	EventVoucherFullyRedeemed   EventType = "voucher_fully_redeemed"
	EventFloatCreated           EventType = "float_created_for_transaction"
	EventFloatCreditPurchased   EventType = "float_credit_purchased"
	EventFloatDecreased         EventType = "float_decreased_by_transaction"
	EventReconciliationStarted  EventType = "reconciliation_has_started"
	EventOverallTotalsRecorded  EventType = "overall_totals_recorded"
	EventReconciliationAuthed   EventType = "reconciliation_has_been_locally_authorised"
	EventReconciliationDeclined EventType = "reconciliation_has_been_locally_declined"
	EventReconciliationDone     EventType = "reconciliation_has_completed"
)

var validEventTypes = []EventType{
	EventEstateCreated,
	EventOperatorAddedToEstate,
	EventMerchantCreated,
	EventOperatorAssigned,
	EventDeviceAddedToMerchant,
	EventManualDepositMade,
	EventWithdrawalMade,
	EventContractCreated,
	EventFixedProductAdded,
	EventVariableProductAdded,
	EventProductFeeAdded,
	EventOperatorCreated,
	EventTransactionStarted,
	EventAdditionalDataRecorded,
	EventProductDetailsAdded,
	EventTransactionAuthorised,
	EventTransactionDeclined,
	EventLocallyAuthorised,
	EventLocallyDeclined,
	EventTransactionCompleted,
	EventMerchantFeePending,
	EventSettledMerchantFee,
	EventSettlementCreated,
	EventFeeAddedToSettlement,
	EventFeeSettled,
	EventSettlementProcessing,
	EventSettlementCompleted,
	EventVoucherGenerated,
	EventVoucherIssued,
	EventVoucherFullyRedeemed,
	EventFloatCreated,
	EventFloatCreditPurchased,
	EventFloatDecreased,
	EventReconciliationStarted,
	EventOverallTotalsRecorded,
	EventReconciliationAuthed,
	EventReconciliationDeclined,
	EventReconciliationDone,
}

// IsValid reports whether the value matches a known event discriminator.
func (e EventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEventType converts raw input into EventType.
func ParseEventType(value string) (EventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
