package billing

import "time"

// Status is the subscription state reported by the billing provider.
type Status string

const (
	StatusActive    Status = "active"
	StatusTrialing  Status = "trialing"
	StatusPastDue   Status = "past_due"
	StatusUnpaid    Status = "unpaid"
	StatusCancelled Status = "cancelled"
)

// SubscriptionStatus is the cached view of a customer's billing state.
// Derived solely from webhook events; the billing provider is never queried
// on the request path.
type SubscriptionStatus struct {
	CustomerID        string    `json:"customer_id"`
	Status            Status    `json:"status"`
	CurrentPeriodEnd  time.Time `json:"current_period_end"`
	CancelAtPeriodEnd bool      `json:"cancel_at_period_end"`
	LastUpdated       time.Time `json:"last_updated"`
}

// Event is the decoded webhook payload. EventID drives idempotent
// processing: redelivery of the same id is a no-op.
type Event struct {
	EventID           string `json:"id"`
	Type              string `json:"type"`
	CustomerID        string `json:"customer_id"`
	Status            Status `json:"status"`
	CurrentPeriodEnd  int64  `json:"current_period_end"` // unix seconds
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}
