package stripewebhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"arcana-app/internal/domain/billing"
	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/infra/stripe"
	"arcana-app/internal/pkg/apperr"
	"arcana-app/internal/testdb"

	stripelib "github.com/stripe/stripe-go/v75"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSource struct {
	subs map[string]*stripe.Subscription
	err  error
}

func (f *fakeSource) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.subs[id]; ok {
		return s, nil
	}
	return nil, errors.New("no such subscription")
}

var (
	periodStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
)

func newEvent(t *testing.T, id, typ string, created int64, raw string) *stripelib.Event {
	t.Helper()
	doc := fmt.Sprintf(`{"id":%q,"object":"event","type":%q,"created":%d,"data":{"object":%s}}`, id, typ, created, raw)

	var ev stripelib.Event
	require.NoError(t, json.Unmarshal([]byte(doc), &ev))
	return &ev
}

func subscriptionJSON(id, status string, cancel bool) string {
	return fmt.Sprintf(`{"id":%q,"object":"subscription","status":%q,"cancel_at_period_end":%t,
		"customer":"cus_1","current_period_start":%d,"current_period_end":%d,
		"items":{"object":"list","data":[{"id":"si_1","price":{"id":"price_basic_us"}}]}}`,
		id, status, cancel, periodStart.Unix(), periodEnd.Unix())
}

func seedSub(t *testing.T, db *gorm.DB) *subscriptions.Subscription {
	t.Helper()
	providerID := "stripe_abc"
	s := subscriptions.Subscription{
		UserID:               "user_1",
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: &providerID,
		PlanID:               "basic",
		Status:               subscriptions.StatusActive,
		CurrentPeriodStart:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		CurrentPeriodEnd:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&s).Error)
	return &s
}

func load(t *testing.T, db *gorm.DB, id string) subscriptions.Subscription {
	t.Helper()
	var s subscriptions.Subscription
	require.NoError(t, db.First(&s, "id = ?", id).Error)
	return s
}

func ledgerCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&billing.ProcessedEvent{}).Count(&n).Error)
	return n
}

func TestInvoicePaymentFailedMarksPastDue(t *testing.T) {
	db := testdb.New(t)
	p := NewProcessor(db, nil, nil)
	sub := seedSub(t, db)
	before := load(t, db, sub.ID)

	outcome, err := p.Apply(context.Background(), newEvent(t, "evt_1", EventInvoicePaymentFailed, 1000,
		`{"id":"in_1","object":"invoice","subscription":"stripe_abc","customer":"cus_1"}`))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	after := load(t, db, sub.ID)
	assert.Equal(t, subscriptions.StatusPastDue, after.Status)
	assert.Equal(t, before.UserID, after.UserID)
	assert.Equal(t, before.PlanID, after.PlanID)
	assert.Equal(t, before.StripeCustomerID, after.StripeCustomerID)
	assert.Equal(t, before.CancelAtPeriodEnd, after.CancelAtPeriodEnd)
	assert.True(t, before.CurrentPeriodStart.Equal(after.CurrentPeriodStart))
	assert.True(t, before.CurrentPeriodEnd.Equal(after.CurrentPeriodEnd))
	assert.Equal(t, int64(1), ledgerCount(t, db))
}

func TestInvoicePaidRecordsPaymentOnce(t *testing.T) {
	db := testdb.New(t)
	p := NewProcessor(db, nil, nil)
	sub := seedSub(t, db)
	require.NoError(t, db.Model(&subscriptions.Subscription{}).Where("id = ?", sub.ID).Update("status", subscriptions.StatusPastDue).Error)

	raw := fmt.Sprintf(`{"id":"in_1","object":"invoice","subscription":"stripe_abc","customer":"cus_1",
		"amount_paid":990,"currency":"brl","hosted_invoice_url":"https://pay.example/in_1",
		"lines":{"object":"list","data":[{"id":"il_1","period":{"start":%d,"end":%d}}]}}`,
		periodStart.Unix(), periodEnd.Unix())

	outcome, err := p.Apply(context.Background(), newEvent(t, "evt_paid", EventInvoicePaid, 1000, raw))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	outcome, err = p.Apply(context.Background(), newEvent(t, "evt_paid", EventInvoicePaid, 1000, raw))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	after := load(t, db, sub.ID)
	assert.Equal(t, subscriptions.StatusActive, after.Status)
	assert.True(t, periodStart.Equal(after.CurrentPeriodStart))
	assert.True(t, periodEnd.Equal(after.CurrentPeriodEnd))

	var payments []billing.Payment
	require.NoError(t, db.Find(&payments).Error)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(990), payments[0].Amount)
	assert.Equal(t, "brl", payments[0].Currency)
	assert.Equal(t, "user_1", payments[0].UserID)
	require.NotNil(t, payments[0].ReceiptURL)
	assert.Equal(t, "https://pay.example/in_1", *payments[0].ReceiptURL)
}

func TestSubscriptionUpdatedIsIdempotent(t *testing.T) {
	db := testdb.New(t)
	p := NewProcessor(db, nil, nil)
	sub := seedSub(t, db)
	raw := subscriptionJSON("stripe_abc", "past_due", true)

	_, err := p.Apply(context.Background(), newEvent(t, "evt_a", EventSubscriptionUpdated, 1000, raw))
	require.NoError(t, err)
	once := load(t, db, sub.ID)

	outcome, err := p.Apply(context.Background(), newEvent(t, "evt_b", EventSubscriptionUpdated, 1000, raw))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	twice := load(t, db, sub.ID)

	assert.Equal(t, subscriptions.StatusPastDue, once.Status)
	assert.True(t, once.CancelAtPeriodEnd)
	assert.Equal(t, once.Status, twice.Status)
	assert.Equal(t, once.CancelAtPeriodEnd, twice.CancelAtPeriodEnd)
	assert.True(t, once.CurrentPeriodStart.Equal(twice.CurrentPeriodStart))
	assert.True(t, once.CurrentPeriodEnd.Equal(twice.CurrentPeriodEnd))
	assert.Equal(t, once.StripePriceID, twice.StripePriceID)
	require.NotNil(t, twice.StripePriceID)
	assert.Equal(t, "price_basic_us", *twice.StripePriceID)
}

func TestSubscriptionUpdatedMapsProviderStatus(t *testing.T) {
	db := testdb.New(t)
	p := NewProcessor(db, nil, nil)
	sub := seedSub(t, db)

	_, err := p.Apply(context.Background(), newEvent(t, "evt_trial", EventSubscriptionUpdated, 1000,
		subscriptionJSON("stripe_abc", "trialing", false)))
	require.NoError(t, err)
	assert.Equal(t, subscriptions.StatusActive, load(t, db, sub.ID).Status)

	_, err = p.Apply(context.Background(), newEvent(t, "evt_expired", EventSubscriptionUpdated, 1001,
		subscriptionJSON("stripe_abc", "incomplete_expired", false)))
	require.NoError(t, err)
	assert.Equal(t, subscriptions.StatusCanceled, load(t, db, sub.ID).Status)
}

func TestOutOfOrderEventIsSkipped(t *testing.T) {
	db := testdb.New(t)
	p := NewProcessor(db, nil, nil)
	sub := seedSub(t, db)

	outcome, err := p.Apply(context.Background(), newEvent(t, "evt_deleted", EventSubscriptionDeleted, 2000,
		subscriptionJSON("stripe_abc", "canceled", false)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	outcome, err = p.Apply(context.Background(), newEvent(t, "evt_old_update", EventSubscriptionUpdated, 1000,
		subscriptionJSON("stripe_abc", "active", true)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeStale, outcome)

	after := load(t, db, sub.ID)
	assert.Equal(t, subscriptions.StatusCanceled, after.Status)
	assert.False(t, after.CancelAtPeriodEnd)
	assert.Equal(t, int64(2), ledgerCount(t, db))
}

func TestCheckoutCompletedCreatesSubscription(t *testing.T) {
	db := testdb.Seeded(t)
	source := &fakeSource{subs: map[string]*stripe.Subscription{
		"sub_new": {
			ID: "sub_new", CustomerID: "cus_9", Status: "active", PriceID: "price_premium_us",
			CurrentPeriodStart: periodStart, CurrentPeriodEnd: periodEnd,
		},
	}}
	p := NewProcessor(db, source, nil)

	outcome, err := p.Apply(context.Background(), newEvent(t, "evt_co", EventCheckoutCompleted, 1000,
		`{"id":"cs_1","object":"checkout.session","subscription":"sub_new","customer":"cus_9",
		  "metadata":{"user_id":"user_9","plan_id":"premium"}}`))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	sub, err := subscriptions.ByProviderID(db, "sub_new")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "user_9", sub.UserID)
	assert.Equal(t, "premium", sub.PlanID)
	assert.Equal(t, "cus_9", sub.StripeCustomerID)
	assert.Equal(t, subscriptions.StatusActive, sub.Status)
	assert.False(t, sub.CancelAtPeriodEnd)
	require.NotNil(t, sub.StripePriceID)
	assert.Equal(t, "price_premium_us", *sub.StripePriceID)
	assert.True(t, periodEnd.Equal(sub.CurrentPeriodEnd))
}

func TestCheckoutCompletedFallsBackToReferenceAndPrice(t *testing.T) {
	db := testdb.Seeded(t)
	source := &fakeSource{subs: map[string]*stripe.Subscription{
		"sub_ref": {ID: "sub_ref", Status: "active", PriceID: "price_intermediate_br",
			CurrentPeriodStart: periodStart, CurrentPeriodEnd: periodEnd},
	}}
	p := NewProcessor(db, source, nil)

	_, err := p.Apply(context.Background(), newEvent(t, "evt_ref", EventCheckoutCompleted, 1000,
		`{"id":"cs_2","object":"checkout.session","subscription":"sub_ref","customer":"cus_2","client_reference_id":"user_ref"}`))
	require.NoError(t, err)

	sub, err := subscriptions.ByProviderID(db, "sub_ref")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "user_ref", sub.UserID)
	assert.Equal(t, "intermediate", sub.PlanID)
}

func TestCheckoutCompletedWithoutUserIsSkipped(t *testing.T) {
	db := testdb.New(t)
	p := NewProcessor(db, nil, nil)

	outcome, err := p.Apply(context.Background(), newEvent(t, "evt_anon", EventCheckoutCompleted, 1000,
		`{"id":"cs_3","object":"checkout.session","metadata":{"planId":"basic"}}`))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)

	var n int64
	require.NoError(t, db.Model(&subscriptions.Subscription{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestFailedProcessingIsNotRecorded(t *testing.T) {
	db := testdb.New(t)
	source := &fakeSource{err: errors.New("stripe unavailable")}
	p := NewProcessor(db, source, nil)
	ev := newEvent(t, "evt_retry", EventCheckoutCompleted, 1000,
		`{"id":"cs_4","object":"checkout.session","subscription":"sub_retry","metadata":{"userId":"user_4","planId":"basic"}}`)

	_, err := p.Apply(context.Background(), ev)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.Zero(t, ledgerCount(t, db))

	source.err = nil
	source.subs = map[string]*stripe.Subscription{
		"sub_retry": {ID: "sub_retry", Status: "active", CurrentPeriodStart: periodStart, CurrentPeriodEnd: periodEnd},
	}
	outcome, err := p.Apply(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, int64(1), ledgerCount(t, db))
}

func TestSubscriptionUpdatedCreatesUnknownWithMetadata(t *testing.T) {
	db := testdb.New(t)
	p := NewProcessor(db, nil, nil)

	raw := fmt.Sprintf(`{"id":"sub_meta","object":"subscription","status":"active","customer":"cus_5",
		"current_period_start":%d,"current_period_end":%d,"metadata":{"userId":"user_5","planId":"basic"}}`,
		periodStart.Unix(), periodEnd.Unix())
	outcome, err := p.Apply(context.Background(), newEvent(t, "evt_meta", EventSubscriptionUpdated, 1000, raw))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	sub, err := subscriptions.ByProviderID(db, "sub_meta")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "user_5", sub.UserID)

	outcome, err = p.Apply(context.Background(), newEvent(t, "evt_nometa", EventSubscriptionUpdated, 1000,
		subscriptionJSON("sub_orphan", "active", false)))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
}

func TestUnhandledAndMalformedEvents(t *testing.T) {
	db := testdb.New(t)
	p := NewProcessor(db, nil, nil)

	outcome, err := p.Apply(context.Background(), newEvent(t, "evt_x", "customer.created", 1000, `{"id":"cus_1"}`))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)

	_, err = p.Apply(context.Background(), newEvent(t, "evt_bad", EventInvoicePaid, 1000, `{"id":5,"object":"invoice"}`))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Zero(t, ledgerCount(t, db))
}

func TestInvoiceBeforeCheckoutIsRedelivered(t *testing.T) {
	db := testdb.Seeded(t)
	source := &fakeSource{subs: map[string]*stripe.Subscription{
		"sub_new": {ID: "sub_new", CustomerID: "cus_9", Status: "active", PriceID: "price_premium_us",
			CurrentPeriodStart: periodStart, CurrentPeriodEnd: periodEnd},
	}}
	p := NewProcessor(db, source, nil)

	invoice := newEvent(t, "evt_inv", EventInvoicePaid, 1000,
		`{"id":"in_first","object":"invoice","subscription":"sub_new","customer":"cus_9","amount_paid":1990,"currency":"usd"}`)

	_, err := p.Apply(context.Background(), invoice)
	require.ErrorIs(t, err, ErrNotLinked)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Zero(t, ledgerCount(t, db))

	outcome, err := p.Apply(context.Background(), newEvent(t, "evt_co_late", EventCheckoutCompleted, 1001,
		`{"id":"cs_late","object":"checkout.session","subscription":"sub_new","customer":"cus_9",
		  "metadata":{"user_id":"user_9","plan_id":"premium"}}`))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	// older than the checkout, so the row is left alone but the payment lands
	outcome, err = p.Apply(context.Background(), invoice)
	require.NoError(t, err)
	assert.Equal(t, OutcomeStale, outcome)

	var payments []billing.Payment
	require.NoError(t, db.Find(&payments).Error)
	require.Len(t, payments, 1)
	assert.Equal(t, "in_first", payments[0].StripeInvoiceID)
	assert.Equal(t, "user_9", payments[0].UserID)
	assert.Equal(t, int64(1990), payments[0].Amount)
	assert.Equal(t, int64(2), ledgerCount(t, db))
}

func TestPaymentFailedBeforeCheckoutIsRedelivered(t *testing.T) {
	db := testdb.New(t)
	p := NewProcessor(db, nil, nil)
	failed := newEvent(t, "evt_fail_early", EventInvoicePaymentFailed, 3000,
		`{"id":"in_2","object":"invoice","subscription":"stripe_abc","customer":"cus_1"}`)

	_, err := p.Apply(context.Background(), failed)
	require.ErrorIs(t, err, ErrNotLinked)
	assert.Zero(t, ledgerCount(t, db))

	sub := seedSub(t, db)
	outcome, err := p.Apply(context.Background(), failed)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, subscriptions.StatusPastDue, load(t, db, sub.ID).Status)
}

func TestInvoiceWithoutSubscriptionIsIgnored(t *testing.T) {
	db := testdb.New(t)
	p := NewProcessor(db, nil, nil)

	outcome, err := p.Apply(context.Background(), newEvent(t, "evt_oneoff", EventInvoicePaid, 1000,
		`{"id":"in_oneoff","object":"invoice","customer":"cus_1","amount_paid":500,"currency":"usd"}`))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
}
