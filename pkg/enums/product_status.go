package enums

import "fmt"

// ProductStatus marks whether a product is sold.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

var validProductStatuss = []ProductStatus{
	ProductStatusActive,
	ProductStatusInactive,
}

// String implements fmt.Stringer.
func (v ProductStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ProductStatus.
func (v ProductStatus) IsValid() bool {
	for _, candidate := range validProductStatuss {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	for _, candidate := range validProductStatuss {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product status %q", value)
}
