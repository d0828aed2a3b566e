package enums

import "fmt"

// BalanceEntryType maps to the entry_type column on balance history rows.
type BalanceEntryType string

const (
	BalanceEntryDeposit    BalanceEntryType = "deposit"
	BalanceEntryWithdrawal BalanceEntryType = "withdrawal"
	BalanceEntrySale       BalanceEntryType = "sale"
	BalanceEntryFee        BalanceEntryType = "fee"
)

var validBalanceEntryTypes = []BalanceEntryType{
	BalanceEntryDeposit,
	BalanceEntryWithdrawal,
	BalanceEntrySale,
	BalanceEntryFee,
}

// IsValid reports whether the value is a known balance entry type.
func (b BalanceEntryType) IsValid() bool {
	for _, candidate := range validBalanceEntryTypes {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBalanceEntryType converts raw input into BalanceEntryType.
func ParseBalanceEntryType(value string) (BalanceEntryType, error) {
	for _, candidate := range validBalanceEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid balance entry type %q", value)
}

// ParkReason maps to the park_reason column on parked event rows.
type ParkReason string

const (
	ParkReasonMaxRetries   ParkReason = "max_retries"
	ParkReasonNonRetryable ParkReason = "non_retryable"
)

// IsValid reports whether the value is a known park reason.
func (p ParkReason) IsValid() bool {
	return p == ParkReasonMaxRetries || p == ParkReasonNonRetryable
}
