package enums

import "fmt"

// AggregateType names the event stream category an aggregate belongs to.
type AggregateType string

const (
	AggregateEstate         AggregateType = "estate"
	AggregateMerchant       AggregateType = "merchant"
	AggregateContract       AggregateType = "contract"
	AggregateOperator       AggregateType = "operator"
	AggregateTransaction    AggregateType = "transaction"
	AggregateSettlement     AggregateType = "settlement"
	AggregateVoucher        AggregateType = "voucher"
	AggregateFloat          AggregateType = "float"
	AggregateReconciliation AggregateType = "reconciliation"
)

var validAggregateTypes = []AggregateType{
	AggregateEstate,
	AggregateMerchant,
	AggregateContract,
	AggregateOperator,
	AggregateTransaction,
	AggregateSettlement,
	AggregateVoucher,
	AggregateFloat,
	AggregateReconciliation,
}

// IsValid reports whether the value matches a known aggregate category.
func (a AggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAggregateType converts raw input into AggregateType.
func ParseAggregateType(value string) (AggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}
