package enums

import "fmt"

// OrderType distinguishes sales (credit, stock out) from returns (debit, stock in).
type OrderType string

const (
	OrderTypeCredit OrderType = "credit"
	OrderTypeDebit  OrderType = "debit"
)

var validOrderTypes = []OrderType{
	OrderTypeCredit,
	OrderTypeDebit,
}

// String implements fmt.Stringer.
func (v OrderType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known OrderType.
func (v OrderType) IsValid() bool {
	for _, candidate := range validOrderTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseOrderType converts raw input into a OrderType.
func ParseOrderType(value string) (OrderType, error) {
	for _, candidate := range validOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order type %q", value)
}

// StockSign is the direction an order line moves stock: sales remove units, returns add them.
func (v OrderType) StockSign() int64 {
	if v == OrderTypeCredit {
		return -1
	}
	return 1
}

// TransactionType maps the order type onto the ledger entry type of the same direction.
func (v OrderType) TransactionType() TransactionType {
	if v == OrderTypeDebit {
		return TransactionTypeDebit
	}
	return TransactionTypeCredit
}
