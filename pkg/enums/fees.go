package enums

import "fmt"

// CalculationType selects how a configured fee value is applied to an amount.
type CalculationType string

const (
	CalculationPercentage CalculationType = "percentage"
	CalculationFixed      CalculationType = "fixed"
)

var validCalculationTypes = []CalculationType{
	CalculationPercentage,
	CalculationFixed,
}

// IsValid reports whether the value is a known calculation type.
func (c CalculationType) IsValid() bool {
	for _, candidate := range validCalculationTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCalculationType converts raw input into CalculationType.
func ParseCalculationType(value string) (CalculationType, error) {
	for _, candidate := range validCalculationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid calculation type %q", value)
}

// FeeType identifies who a contract product fee is charged to.
type FeeType string

const (
	FeeTypeMerchant        FeeType = "merchant"
	FeeTypeServiceProvider FeeType = "service_provider"
)

var validFeeTypes = []FeeType{
	FeeTypeMerchant,
	FeeTypeServiceProvider,
}

// IsValid reports whether the value is a known fee type.
func (f FeeType) IsValid() bool {
	for _, candidate := range validFeeTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFeeType converts raw input into FeeType.
func ParseFeeType(value string) (FeeType, error) {
	for _, candidate := range validFeeTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fee type %q", value)
}
