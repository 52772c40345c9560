package billing

import (
	"context"
	"errors"
	"strings"

	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/infra/stripe"
	"arcana-app/internal/pkg/apperr"
	"arcana-app/internal/pkg/logger"
	"arcana-app/internal/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Provider is the payment provider surface used by subscriber actions and
// checkout.
type Provider interface {
	CreateCustomer(ctx context.Context, email, name, userID string) (string, error)
	SetCancelAtPeriodEnd(ctx context.Context, id string, cancel bool) (*stripe.Subscription, error)
	CancelNow(ctx context.Context, id string) (*stripe.Subscription, error)
	CreateCheckoutSession(ctx context.Context, p stripe.CheckoutParams) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// RegionResolver derives a region id from a caller IP.
type RegionResolver interface {
	Resolve(ctx context.Context, ip string) string
}

// maxWriteAttempts bounds re-reads after a version conflict.
const maxWriteAttempts = 3

type Manager struct {
	db       *gorm.DB
	provider Provider
	resolver RegionResolver
	appURL   string
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

type Option func(*Manager)

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger.OrNop(l) }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

func WithRegionResolver(r RegionResolver) Option {
	return func(m *Manager) { m.resolver = r }
}

func WithAppURL(u string) Option {
	return func(m *Manager) { m.appURL = strings.TrimRight(u, "/") }
}

func NewManager(db *gorm.DB, provider Provider, opts ...Option) *Manager {
	m := &Manager{
		db:       db,
		provider: provider,
		appURL:   "http://localhost:5173",
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetSubscription returns the user's most recent subscription or nil.
func (m *Manager) GetSubscription(ctx context.Context, userID string) (*subscriptions.Subscription, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation("userId is required")
	}
	sub, err := subscriptions.Latest(m.db.WithContext(ctx), userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load subscription", err)
	}
	return sub, nil
}

// UpdateRequest is a subscriber-initiated change.
type UpdateRequest struct {
	Action         string `json:"action"`
	SubscriptionID string `json:"subscriptionId"`
	UserID         string `json:"userId"`
}

// UpdateSubscription applies a cancel, reactivate or cancel-immediately
// action. The provider is called first; the local row is only written once
// the provider accepted the change.
func (m *Manager) UpdateSubscription(ctx context.Context, req UpdateRequest) (*subscriptions.Subscription, error) {
	action, ok := subscriptions.ParseAction(strings.TrimSpace(req.Action))
	if !ok || strings.TrimSpace(req.SubscriptionID) == "" || strings.TrimSpace(req.UserID) == "" {
		return nil, apperr.Validation("Missing or invalid parameters")
	}

	sub, err := m.updateSubscription(ctx, action, req.SubscriptionID, req.UserID)
	result := "ok"
	if err != nil {
		result = apperr.KindOf(err).String()
	}
	m.metrics.RecordSubscriptionAction(string(action), result)
	return sub, err
}

func (m *Manager) updateSubscription(ctx context.Context, action subscriptions.Action, id, userID string) (*subscriptions.Subscription, error) {
	db := m.db.WithContext(ctx)

	var sub subscriptions.Subscription
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Subscription not found")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "load subscription", err)
	}

	if err := subscriptions.CheckAction(&sub, action); err != nil {
		return nil, apperr.Wrap(apperr.KindPrecondition, preconditionMessage(err), err)
	}

	if err := m.callProvider(ctx, action, &sub); err != nil {
		m.logger.Warn("payment provider rejected subscription action",
			zap.String("subscription_id", sub.ID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return nil, apperr.Wrap(apperr.KindUpstream, "Could not process the action with the payment provider", err)
	}

	updates := subscriptions.ActionUpdates(action)
	for attempt := 1; ; attempt++ {
		err := subscriptions.UpdateVersioned(db, &sub, updates)
		if err == nil {
			break
		}
		if !errors.Is(err, subscriptions.ErrVersionConflict) {
			return nil, apperr.Wrap(apperr.KindInternal, "update subscription", err)
		}
		if attempt == maxWriteAttempts {
			return nil, apperr.Wrap(apperr.KindConflict, "Subscription was modified concurrently, retry", err)
		}
		// the provider already applied the action; re-read and mirror it again
		if err := db.Where("id = ?", sub.ID).First(&sub).Error; err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "reload subscription", err)
		}
	}

	if err := db.Where("id = ?", sub.ID).First(&sub).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "reload subscription", err)
	}
	return &sub, nil
}

func (m *Manager) callProvider(ctx context.Context, action subscriptions.Action, sub *subscriptions.Subscription) error {
	switch action {
	case subscriptions.ActionCancel:
		_, err := m.provider.SetCancelAtPeriodEnd(ctx, *sub.StripeSubscriptionID, true)
		return err
	case subscriptions.ActionReactivate:
		_, err := m.provider.SetCancelAtPeriodEnd(ctx, *sub.StripeSubscriptionID, false)
		return err
	case subscriptions.ActionCancelImmediately:
		// default subscriptions have nothing to cancel upstream
		if !sub.HasProviderHandle() {
			return nil
		}
		_, err := m.provider.CancelNow(ctx, *sub.StripeSubscriptionID)
		return err
	}
	return subscriptions.ErrUnsupportedAction
}

func preconditionMessage(err error) string {
	switch {
	case errors.Is(err, subscriptions.ErrNoProviderHandle):
		return "Subscription is not linked to a payment provider"
	case errors.Is(err, subscriptions.ErrAlreadyCanceled):
		return "Subscription is already canceled"
	case errors.Is(err, subscriptions.ErrAlreadyPending):
		return "Subscription is already set to cancel at period end"
	case errors.Is(err, subscriptions.ErrNotPendingCancel):
		return "Subscription is not pending cancellation"
	default:
		return "Could not process the action"
	}
}
