package access

import "arcana-app/internal/domain/subscriptions"

// StateFor reads the access state from the latest subscription. Only an
// active subscription grants access; past_due and unpaid are shown as
// limited so the client can prompt for payment.
func StateFor(sub *subscriptions.Subscription) AccessState {
	if sub == nil {
		return AccessLocked
	}
	if sub.Entitled() {
		return AccessFull
	}
	switch sub.Status {
	case subscriptions.StatusPastDue, subscriptions.StatusUnpaid:
		return AccessLimited
	default:
		return AccessLocked
	}
}
