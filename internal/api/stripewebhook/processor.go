package stripewebhooks

import (
	"context"
	"errors"
	"time"

	"arcana-app/internal/domain/billing"
	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/infra/stripe"
	"arcana-app/internal/pkg/apperr"
	"arcana-app/internal/pkg/logger"

	stripelib "github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Outcome describes what happened to a delivered event.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeStale     Outcome = "stale"
	OutcomeSkipped   Outcome = "skipped"
)

const (
	EventCheckoutCompleted    = "checkout.session.completed"
	EventInvoicePaid          = "invoice.paid"
	EventInvoicePaymentFailed = "invoice.payment_failed"
	EventSubscriptionUpdated  = "customer.subscription.updated"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
)

// maxEventAttempts bounds transaction retries after a version conflict.
const maxEventAttempts = 3

// SubscriptionSource reads provider subscriptions, used to complete checkout
// sessions with period bounds and price.
type SubscriptionSource interface {
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
}

// Processor applies verified provider events to local subscriptions. Each
// applied event is recorded in the processed-event ledger in the same
// transaction as its effect, so redelivery is a no-op.
type Processor struct {
	db     *gorm.DB
	source SubscriptionSource
	logger *zap.Logger
	now    func() time.Time
}

func NewProcessor(db *gorm.DB, source SubscriptionSource, l *zap.Logger) *Processor {
	return &Processor{db: db, source: source, logger: logger.OrNop(l), now: time.Now}
}

var errDuplicate = errors.New("event already processed")

// eventFunc applies one decoded event inside tx.
type eventFunc func(tx *gorm.DB, at time.Time) (Outcome, error)

func (p *Processor) Apply(ctx context.Context, event *stripelib.Event) (Outcome, error) {
	if event == nil || event.ID == "" {
		return "", apperr.Validation("event id missing")
	}

	apply, err := p.prepare(ctx, event)
	if err != nil {
		return "", err
	}
	if apply == nil {
		p.logger.Info("ignoring unhandled stripe event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
		)
		return OutcomeIgnored, nil
	}

	at := time.Unix(event.Created, 0).UTC()
	if event.Created == 0 {
		at = p.now().UTC()
	}

	var outcome Outcome
	for attempt := 1; ; attempt++ {
		err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&billing.ProcessedEvent{
				EventID:     event.ID,
				Type:        string(event.Type),
				ProcessedAt: p.now().UTC(),
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errDuplicate
			}

			o, err := apply(tx, at)
			if err != nil {
				return err
			}
			outcome = o
			return nil
		})
		if errors.Is(err, errDuplicate) {
			return OutcomeDuplicate, nil
		}
		if errors.Is(err, subscriptions.ErrVersionConflict) && attempt < maxEventAttempts {
			continue
		}
		break
	}
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return "", err
		}
		return "", apperr.Wrap(apperr.KindInternal, "apply stripe event", err)
	}

	p.logger.Info("stripe event processed",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("outcome", string(outcome)),
	)
	return outcome, nil
}

// prepare decodes the payload and does any provider reads outside the
// transaction. A nil func means the event type is not handled.
func (p *Processor) prepare(ctx context.Context, event *stripelib.Event) (eventFunc, error) {
	if event.Data == nil {
		return nil, apperr.Validation("event payload missing")
	}

	switch string(event.Type) {
	case EventCheckoutCompleted:
		return p.prepareCheckoutCompleted(ctx, event.Data.Raw)
	case EventInvoicePaid:
		return p.prepareInvoicePaid(event.Data.Raw)
	case EventInvoicePaymentFailed:
		return p.prepareInvoicePaymentFailed(event.Data.Raw)
	case EventSubscriptionUpdated:
		return p.prepareSubscriptionUpdated(event.Data.Raw)
	case EventSubscriptionDeleted:
		return p.prepareSubscriptionDeleted(event.Data.Raw)
	default:
		return nil, nil
	}
}

// isStale reports whether an event created at "at" predates the newest event
// already applied to s.
func isStale(s *subscriptions.Subscription, at time.Time) bool {
	return s.LastEventAt != nil && at.Before(*s.LastEventAt)
}

// applyToSubscription loads the row linked to providerID and writes updates
// unless the event is stale. Unknown subscriptions are skipped.
func (p *Processor) applyToSubscription(tx *gorm.DB, providerID string, at time.Time, updates map[string]interface{}) (*subscriptions.Subscription, Outcome, error) {
	sub, err := subscriptions.ByProviderID(tx, providerID)
	if err != nil {
		return nil, "", err
	}
	if sub == nil {
		p.logger.Warn("stripe event for unknown subscription", zap.String("stripe_subscription_id", providerID))
		return nil, OutcomeSkipped, nil
	}
	if isStale(sub, at) {
		p.logger.Info("skipping out-of-order stripe event",
			zap.String("subscription_id", sub.ID),
			zap.Time("event_at", at),
			zap.Time("last_event_at", *sub.LastEventAt),
		)
		return sub, OutcomeStale, nil
	}

	updates["last_event_at"] = at
	if err := subscriptions.UpdateVersioned(tx, sub, updates); err != nil {
		return nil, "", err
	}
	return sub, OutcomeApplied, nil
}

// ErrNotLinked is returned for invoice events that arrive before the checkout
// that links their subscription. The ledger entry is rolled back and the 409
// makes the provider redeliver.
var ErrNotLinked = apperr.Conflict("Subscription not linked yet")

// applyToLinked is applyToSubscription for events that must not be lost when
// the local row does not exist yet.
func (p *Processor) applyToLinked(tx *gorm.DB, providerID string, at time.Time, updates map[string]interface{}) (*subscriptions.Subscription, Outcome, error) {
	if providerID == "" {
		return nil, OutcomeIgnored, nil
	}
	sub, outcome, err := p.applyToSubscription(tx, providerID, at, updates)
	if err == nil && sub == nil && outcome == OutcomeSkipped {
		return nil, "", ErrNotLinked
	}
	return sub, outcome, err
}

func metadataValue(md map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := md[k]; v != "" {
			return v
		}
	}
	return ""
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
