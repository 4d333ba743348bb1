package enums

import "fmt"

// OrderStatus tracks a wholesale order through its lifecycle.
type OrderStatus string

const (
	OrderStatusSubmitted OrderStatus = "submitted"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusCanceled  OrderStatus = "canceled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusSubmitted,
	OrderStatusConfirmed,
	OrderStatusFulfilled,
	OrderStatusCanceled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
