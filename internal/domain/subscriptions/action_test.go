package subscriptions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestParseAction(t *testing.T) {
	for _, s := range []string{"cancel", "reactivate", "cancel-immediately"} {
		a, ok := ParseAction(s)
		assert.True(t, ok)
		assert.Equal(t, Action(s), a)
	}
	_, ok := ParseAction("pause")
	assert.False(t, ok)
	_, ok = ParseAction("")
	assert.False(t, ok)
}

func TestCheckAction(t *testing.T) {
	live := func() *Subscription {
		return &Subscription{Status: StatusActive, StripeSubscriptionID: strPtr("sub_live")}
	}

	assert.NoError(t, CheckAction(live(), ActionCancel))
	assert.NoError(t, CheckAction(live(), ActionCancelImmediately))
	assert.ErrorIs(t, CheckAction(live(), ActionReactivate), ErrNotPendingCancel)

	pending := live()
	pending.CancelAtPeriodEnd = true
	assert.NoError(t, CheckAction(pending, ActionReactivate))
	assert.ErrorIs(t, CheckAction(pending, ActionCancel), ErrAlreadyPending)

	free := &Subscription{Status: StatusActive}
	assert.ErrorIs(t, CheckAction(free, ActionCancel), ErrNoProviderHandle)
	assert.NoError(t, CheckAction(free, ActionCancelImmediately))

	canceled := live()
	canceled.Status = StatusCanceled
	assert.ErrorIs(t, CheckAction(canceled, ActionCancelImmediately), ErrAlreadyCanceled)
	assert.ErrorIs(t, CheckAction(canceled, ActionCancel), ErrAlreadyCanceled)

	assert.ErrorIs(t, CheckAction(live(), Action("pause")), ErrUnsupportedAction)
}

func TestStatusFromProvider(t *testing.T) {
	assert.Equal(t, StatusActive, StatusFromProvider("active"))
	assert.Equal(t, StatusActive, StatusFromProvider("trialing"))
	assert.Equal(t, StatusPastDue, StatusFromProvider("past_due"))
	assert.Equal(t, StatusUnpaid, StatusFromProvider("unpaid"))
	assert.Equal(t, StatusUnpaid, StatusFromProvider("paused"))
	assert.Equal(t, StatusCanceled, StatusFromProvider("canceled"))
	assert.Equal(t, StatusCanceled, StatusFromProvider("incomplete_expired"))
	assert.Equal(t, StatusIncomplete, StatusFromProvider("incomplete"))
	assert.Equal(t, StatusIncomplete, StatusFromProvider("something_new"))
}
