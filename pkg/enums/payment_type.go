package enums

import "fmt"

// PaymentType records how an order is settled.
type PaymentType string

const (
	PaymentTypeCash   PaymentType = "cash"
	PaymentTypeCredit PaymentType = "credit"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeCash,
	PaymentTypeCredit,
}

// String implements fmt.Stringer.
func (v PaymentType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known PaymentType.
func (v PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	for _, candidate := range validPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}
