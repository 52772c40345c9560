package subscriptions

import "strings"

type Status string

const (
	StatusIncomplete Status = "incomplete"
	StatusActive     Status = "active"
	StatusPastDue    Status = "past_due"
	StatusUnpaid     Status = "unpaid"
	StatusCanceled   Status = "canceled"
)

// StatusFromProvider maps a payment-provider subscription status onto the
// closed local set. Unknown values map to incomplete, which grants nothing.
func StatusFromProvider(s string) Status {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "active", "trialing":
		return StatusActive
	case "past_due":
		return StatusPastDue
	case "unpaid", "paused":
		return StatusUnpaid
	case "canceled", "incomplete_expired":
		return StatusCanceled
	default:
		return StatusIncomplete
	}
}
