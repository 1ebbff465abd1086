package valueobjects

import "fmt"

// OrderStatus is the lifecycle state of an order.
//
//	pending -> seen | credited | expired | failed
//	seen    -> credited | expired | failed
//
// credited, expired and failed are terminal.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusSeen     OrderStatus = "seen"
	OrderStatusCredited OrderStatus = "credited"
	OrderStatusExpired  OrderStatus = "expired"
	OrderStatusFailed   OrderStatus = "failed"
)

var orderTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending: {
		OrderStatusSeen:     true,
		OrderStatusCredited: true,
		OrderStatusExpired:  true,
		OrderStatusFailed:   true,
	},
	OrderStatusSeen: {
		OrderStatusCredited: true,
		OrderStatusExpired:  true,
		OrderStatusFailed:   true,
	},
	OrderStatusCredited: {},
	OrderStatusExpired:  {},
	OrderStatusFailed:   {},
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if _, ok := orderTransitions[st]; !ok {
		return "", fmt.Errorf("invalid order status: %q", s)
	}
	return st, nil
}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsLive reports whether the order still holds its amount fingerprint.
func (s OrderStatus) IsLive() bool {
	return s == OrderStatusPending || s == OrderStatusSeen
}

func (s OrderStatus) IsTerminal() bool {
	return s.IsValid() && !s.IsLive()
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return orderTransitions[s][next]
}

// LiveStatuses are the states a matcher may credit from.
func LiveStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusPending, OrderStatusSeen}
}
