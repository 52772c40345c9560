package stripe

import "arcana-app/internal/domain/subscriptions"

// LocalStatus maps the provider status onto the local subscription status set.
func (s *Subscription) LocalStatus() subscriptions.Status {
	if s == nil {
		return subscriptions.StatusIncomplete
	}
	return subscriptions.StatusFromProvider(s.Status)
}
