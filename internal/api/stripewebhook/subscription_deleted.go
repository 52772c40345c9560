package stripewebhooks

import (
	"encoding/json"
	"time"

	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/pkg/apperr"

	stripelib "github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
)

func (p *Processor) prepareSubscriptionDeleted(raw json.RawMessage) (eventFunc, error) {
	var decoded stripelib.Subscription
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "Failed to parse subscription", err)
	}
	if decoded.ID == "" {
		return nil, apperr.Validation("subscription id missing")
	}

	return func(tx *gorm.DB, at time.Time) (Outcome, error) {
		_, outcome, err := p.applyToSubscription(tx, decoded.ID, at, map[string]interface{}{
			"status": subscriptions.StatusCanceled,
		})
		return outcome, err
	}, nil
}
