package access

import (
	"arcana-app/internal/domain/plans"
	"arcana-app/internal/domain/subscriptions"
)

type Policy struct {
	State        AccessState `json:"state"`
	Capabilities []string    `json:"capabilities"`
}

// ComputePolicy combines the subscription state with the tier of its plan.
// plan may be nil when the subscription's plan no longer exists.
func ComputePolicy(sub *subscriptions.Subscription, plan *plans.Plan) Policy {
	state := StateFor(sub)
	return Policy{
		State:        state,
		Capabilities: CapabilitiesFor(state, plan),
	}
}

// Allows reports whether the policy grants capability.
func (p Policy) Allows(capability string) bool {
	for _, c := range p.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
