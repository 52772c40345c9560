package stripewebhooks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"arcana-app/internal/domain/plans"
	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/infra/stripe"
	"arcana-app/internal/pkg/apperr"

	stripelib "github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (p *Processor) prepareCheckoutCompleted(ctx context.Context, raw json.RawMessage) (eventFunc, error) {
	var decoded stripelib.CheckoutSession
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "Failed to parse session", err)
	}
	session := stripe.CheckoutSessionFrom(&decoded)

	var remote *stripe.Subscription
	if session.SubscriptionID != "" && p.source != nil {
		s, err := p.source.GetSubscription(ctx, session.SubscriptionID)
		if err != nil {
			// retried by the provider; nothing is recorded yet
			return nil, apperr.Wrap(apperr.KindUpstream, "fetch checkout subscription", err)
		}
		remote = s
	}

	return func(tx *gorm.DB, at time.Time) (Outcome, error) {
		return p.checkoutCompleted(tx, at, session, remote)
	}, nil
}

func (p *Processor) checkoutCompleted(tx *gorm.DB, at time.Time, session *stripe.CheckoutSession, remote *stripe.Subscription) (Outcome, error) {
	var remoteMeta map[string]string
	if remote != nil {
		remoteMeta = remote.Metadata
	}

	userID := metadataValue(session.Metadata, "userId", "user_id")
	if userID == "" {
		userID = metadataValue(remoteMeta, "userId", "user_id")
	}
	if userID == "" {
		userID = session.ClientReferenceID
	}

	priceID := ""
	if remote != nil {
		priceID = remote.PriceID
	}

	planID := metadataValue(session.Metadata, "planId", "plan_id")
	if planID == "" {
		planID = metadataValue(remoteMeta, "planId", "plan_id")
	}
	if planID == "" && priceID != "" {
		var price plans.RegionalPrice
		err := tx.Where("stripe_price_id = ?", priceID).First(&price).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		planID = price.PlanID
	}

	if userID == "" || planID == "" {
		p.logger.Warn("checkout session without user or plan",
			zap.String("session_id", session.ID),
			zap.String("user_id", userID),
			zap.String("plan_id", planID),
		)
		return OutcomeSkipped, nil
	}

	start, end := at, at.AddDate(0, 1, 0)
	customerID := session.CustomerID
	if remote != nil {
		if !remote.CurrentPeriodStart.IsZero() {
			start, end = remote.CurrentPeriodStart, remote.CurrentPeriodEnd
		}
		if customerID == "" {
			customerID = remote.CustomerID
		}
	}

	existing, err := subscriptions.ByProviderID(tx, session.SubscriptionID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		if isStale(existing, at) {
			return OutcomeStale, nil
		}
		updates := map[string]interface{}{
			"plan_id":              planID,
			"status":               subscriptions.StatusActive,
			"cancel_at_period_end": false,
			"current_period_start": start,
			"current_period_end":   end,
			"last_event_at":        at,
		}
		if customerID != "" {
			updates["stripe_customer_id"] = customerID
		}
		if priceID != "" {
			updates["stripe_price_id"] = priceID
		}
		if err := subscriptions.UpdateVersioned(tx, existing, updates); err != nil {
			return "", err
		}
		return OutcomeApplied, nil
	}

	row := subscriptions.Subscription{
		UserID:               userID,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: strPtr(session.SubscriptionID),
		PlanID:               planID,
		StripePriceID:        strPtr(priceID),
		Status:               subscriptions.StatusActive,
		CancelAtPeriodEnd:    false,
		CurrentPeriodStart:   start,
		CurrentPeriodEnd:     end,
		LastEventAt:          &at,
	}
	if err := tx.Create(&row).Error; err != nil {
		return "", err
	}
	return OutcomeApplied, nil
}
