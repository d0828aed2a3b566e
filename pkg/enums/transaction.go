package enums

import "fmt"

// TransactionType distinguishes the supported terminal transaction kinds.
type TransactionType string

const (
	TransactionLogon          TransactionType = "logon"
	TransactionSale           TransactionType = "sale"
	TransactionReconciliation TransactionType = "reconciliation"
)

var validTransactionTypes = []TransactionType{
	TransactionLogon,
	TransactionSale,
	TransactionReconciliation,
}

// IsValid reports whether the value is a known transaction type.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}

// Authorisation response codes shared by operator and local authorisation.
const (
	ResponseCodeSuccess         = "0000"
	ResponseCodeInvalidDevice   = "1000"
	ResponseCodeInvalidEstate   = "1001"
	ResponseCodeInvalidMerchant = "1002"
	ResponseCodeNoDevices       = "1003"
	ResponseCodeUnknownDevice   = "1004"
	ResponseCodeInvalidProduct  = "1005"
	ResponseCodeInvalidAmount   = "1006"
	ResponseCodeOperatorFailed  = "1008"
	ResponseCodeNoFloat         = "1009"
	ResponseCodeTotalsMismatch  = "1010"
)
