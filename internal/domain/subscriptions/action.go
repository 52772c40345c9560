package subscriptions

import "errors"

// Action is a subscriber-initiated change.
type Action string

const (
	ActionCancel            Action = "cancel"
	ActionReactivate        Action = "reactivate"
	ActionCancelImmediately Action = "cancel-immediately"
)

func ParseAction(s string) (Action, bool) {
	switch a := Action(s); a {
	case ActionCancel, ActionReactivate, ActionCancelImmediately:
		return a, true
	default:
		return "", false
	}
}

var (
	ErrNoProviderHandle  = errors.New("subscription has no payment provider handle")
	ErrAlreadyCanceled   = errors.New("subscription is already canceled")
	ErrAlreadyPending    = errors.New("subscription is already set to cancel at period end")
	ErrNotPendingCancel  = errors.New("subscription is not pending cancellation")
	ErrUnsupportedAction = errors.New("unsupported action")
)

// CheckAction validates that action may be applied to s in its current state.
// It never mutates s.
func CheckAction(s *Subscription, action Action) error {
	switch action {
	case ActionCancel:
		if !s.HasProviderHandle() {
			return ErrNoProviderHandle
		}
		if s.Status == StatusCanceled {
			return ErrAlreadyCanceled
		}
		if s.CancelAtPeriodEnd {
			return ErrAlreadyPending
		}
		return nil

	case ActionReactivate:
		if !s.CancelAtPeriodEnd {
			return ErrNotPendingCancel
		}
		if !s.HasProviderHandle() {
			return ErrNoProviderHandle
		}
		if s.Status == StatusCanceled {
			return ErrAlreadyCanceled
		}
		return nil

	case ActionCancelImmediately:
		if s.Status == StatusCanceled {
			return ErrAlreadyCanceled
		}
		return nil
	}
	return ErrUnsupportedAction
}

// ActionUpdates returns the column changes that action produces locally once
// the provider accepted it.
func ActionUpdates(action Action) map[string]interface{} {
	switch action {
	case ActionCancel:
		return map[string]interface{}{"cancel_at_period_end": true}
	case ActionReactivate:
		return map[string]interface{}{"cancel_at_period_end": false}
	case ActionCancelImmediately:
		return map[string]interface{}{
			"status":               StatusCanceled,
			"cancel_at_period_end": false,
		}
	}
	return nil
}
