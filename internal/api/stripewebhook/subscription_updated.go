package stripewebhooks

import (
	"encoding/json"
	"time"

	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/infra/stripe"
	"arcana-app/internal/pkg/apperr"

	stripelib "github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (p *Processor) prepareSubscriptionUpdated(raw json.RawMessage) (eventFunc, error) {
	var decoded stripelib.Subscription
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "Failed to parse subscription", err)
	}
	remote := stripe.SubscriptionFrom(&decoded)
	if remote.ID == "" {
		return nil, apperr.Validation("subscription id missing")
	}

	return func(tx *gorm.DB, at time.Time) (Outcome, error) {
		return p.subscriptionUpdated(tx, at, remote)
	}, nil
}

// subscriptionUpdated resyncs the row from the provider object, which is the
// source of truth. Applying the same payload twice leaves the same state.
func (p *Processor) subscriptionUpdated(tx *gorm.DB, at time.Time, remote *stripe.Subscription) (Outcome, error) {
	existing, err := subscriptions.ByProviderID(tx, remote.ID)
	if err != nil {
		return "", err
	}

	if existing == nil {
		userID := metadataValue(remote.Metadata, "userId", "user_id")
		planID := metadataValue(remote.Metadata, "planId", "plan_id")
		if userID == "" || planID == "" {
			p.logger.Warn("subscription update for unknown subscription without metadata",
				zap.String("stripe_subscription_id", remote.ID),
			)
			return OutcomeSkipped, nil
		}

		row := subscriptions.Subscription{
			UserID:               userID,
			StripeCustomerID:     remote.CustomerID,
			StripeSubscriptionID: strPtr(remote.ID),
			PlanID:               planID,
			StripePriceID:        strPtr(remote.PriceID),
			Status:               remote.LocalStatus(),
			CancelAtPeriodEnd:    remote.CancelAtPeriodEnd,
			CurrentPeriodStart:   remote.CurrentPeriodStart,
			CurrentPeriodEnd:     remote.CurrentPeriodEnd,
			LastEventAt:          &at,
		}
		if err := tx.Create(&row).Error; err != nil {
			return "", err
		}
		return OutcomeApplied, nil
	}

	updates := map[string]interface{}{
		"status":               remote.LocalStatus(),
		"cancel_at_period_end": remote.CancelAtPeriodEnd,
	}
	if !remote.CurrentPeriodEnd.IsZero() {
		updates["current_period_start"] = remote.CurrentPeriodStart
		updates["current_period_end"] = remote.CurrentPeriodEnd
	}
	if remote.PriceID != "" {
		updates["stripe_price_id"] = remote.PriceID
	}
	if remote.CustomerID != "" {
		updates["stripe_customer_id"] = remote.CustomerID
	}

	_, outcome, err := p.applyToSubscription(tx, remote.ID, at, updates)
	return outcome, err
}
