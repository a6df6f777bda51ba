package domain

// OrderStatus represents the status of an order as reported by the commerce
// service.
type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusInDelivery OrderStatus = "in_delivery"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusPaid       OrderStatus = "paid"
)

// IsValid checks if the order status is valid.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusNew,
		OrderStatusInDelivery,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusPaid:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a status transition is valid.
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	switch s {
	case OrderStatusNew:
		return newStatus == OrderStatusInDelivery ||
			newStatus == OrderStatusPaid ||
			newStatus == OrderStatusCancelled
	case OrderStatusInDelivery:
		return newStatus == OrderStatusDelivered ||
			newStatus == OrderStatusCancelled
	case OrderStatusPaid:
		return newStatus == OrderStatusInDelivery ||
			newStatus == OrderStatusDelivered
	case OrderStatusDelivered, OrderStatusCancelled:
		return false // Terminal states
	default:
		return false
	}
}

// SubmissionState tracks where a checkout submission is in its lifecycle.
type SubmissionState string

const (
	SubmissionIdle          SubmissionState = "IDLE"
	SubmissionValidating    SubmissionState = "VALIDATING"
	SubmissionCheckingStock SubmissionState = "CHECKING_STOCK"
	SubmissionSubmitting    SubmissionState = "SUBMITTING"
	SubmissionSucceeded     SubmissionState = "SUCCEEDED"
	SubmissionFailed        SubmissionState = "FAILED"
)

// InFlight reports whether a submission is between trigger and outcome.
// A repeated submit while in flight must be rejected.
func (s SubmissionState) InFlight() bool {
	return s == SubmissionValidating || s == SubmissionCheckingStock || s == SubmissionSubmitting
}

// IsTerminal reports whether the submission reached an outcome.
func (s SubmissionState) IsTerminal() bool {
	return s == SubmissionSucceeded || s == SubmissionFailed
}

// String representation (for logging)
func (s SubmissionState) String() string {
	return string(s)
}
