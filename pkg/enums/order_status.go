package enums

import "fmt"

// OrderStatus is the production signal of an order item.
// hold parks completed items and feeds ice admission control.
type OrderStatus string

const (
	OrderStatusOK   OrderStatus = "ok"
	OrderStatusStop OrderStatus = "stop"
	OrderStatusHold OrderStatus = "hold"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusOK,
	OrderStatusStop,
	OrderStatusHold,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsManual reports whether staff may set the status on a whole group.
func (s OrderStatus) IsManual() bool {
	return s == OrderStatusOK || s == OrderStatusStop
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
