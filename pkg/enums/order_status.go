package enums

import "fmt"

// OrderStatus tracks settlement of an order.
type OrderStatus string

const (
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusComplete OrderStatus = "complete"
	OrderStatusReturned OrderStatus = "returned"
)

var validOrderStatuss = []OrderStatus{
	OrderStatusPaid,
	OrderStatusComplete,
	OrderStatusReturned,
}

// String implements fmt.Stringer.
func (v OrderStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known OrderStatus.
func (v OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuss {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into a OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuss {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
