package stripewebhooks

import (
	"encoding/json"
	"strings"
	"time"

	"arcana-app/internal/domain/billing"
	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/infra/stripe"
	"arcana-app/internal/pkg/apperr"

	stripelib "github.com/stripe/stripe-go/v75"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (p *Processor) prepareInvoicePaid(raw json.RawMessage) (eventFunc, error) {
	var decoded stripelib.Invoice
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "Failed to parse invoice", err)
	}
	inv := stripe.InvoiceFrom(&decoded)

	return func(tx *gorm.DB, at time.Time) (Outcome, error) {
		updates := map[string]interface{}{
			"status": subscriptions.StatusActive,
		}
		if !inv.PeriodEnd.IsZero() {
			updates["current_period_start"] = inv.PeriodStart
			updates["current_period_end"] = inv.PeriodEnd
		}

		sub, outcome, err := p.applyToLinked(tx, inv.SubscriptionID, at, updates)
		if err != nil || sub == nil {
			return outcome, err
		}

		// the payment is recorded even for stale events; it is keyed by invoice
		payment := billing.Payment{
			UserID:               sub.UserID,
			SubscriptionID:       sub.ID,
			PlanID:               sub.PlanID,
			StripeInvoiceID:      inv.ID,
			StripeSubscriptionID: inv.SubscriptionID,
			Amount:               inv.AmountPaid,
			Currency:             strings.ToLower(inv.Currency),
			Status:               "paid",
			ReceiptURL:           strPtr(inv.HostedURL),
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stripe_invoice_id"}},
			DoNothing: true,
		}).Create(&payment).Error
		if err != nil {
			return "", err
		}
		return outcome, nil
	}, nil
}
