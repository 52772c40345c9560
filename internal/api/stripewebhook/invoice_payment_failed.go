package stripewebhooks

import (
	"encoding/json"
	"time"

	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/infra/stripe"
	"arcana-app/internal/pkg/apperr"

	stripelib "github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
)

func (p *Processor) prepareInvoicePaymentFailed(raw json.RawMessage) (eventFunc, error) {
	var decoded stripelib.Invoice
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "Failed to parse invoice", err)
	}
	inv := stripe.InvoiceFrom(&decoded)

	return func(tx *gorm.DB, at time.Time) (Outcome, error) {
		_, outcome, err := p.applyToLinked(tx, inv.SubscriptionID, at, map[string]interface{}{
			"status": subscriptions.StatusPastDue,
		})
		return outcome, err
	}, nil
}
