package enums

// PaymentMethod is the instrument a ledger transaction was settled with.
// Only cash settlements are recorded.
type PaymentMethod string

const PaymentMethodCash PaymentMethod = "cash"

func (v PaymentMethod) String() string {
	return string(v)
}

// IsValid reports whether the value is a known PaymentMethod.
func (v PaymentMethod) IsValid() bool {
	return v == PaymentMethodCash
}
