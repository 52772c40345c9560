package billing

import (
	"context"
	"errors"
	"strings"

	"arcana-app/internal/domain/billing"
	"arcana-app/internal/domain/plans"
	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/domain/users"
	"arcana-app/internal/infra/stripe"
	"arcana-app/internal/pkg/apperr"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CheckoutRequest struct {
	UserID string
	PlanID string
	IP     string
}

// Checkout opens a provider checkout session for the plan's price in the
// caller's region. The region comes from the profile when known, else from
// the caller IP.
func (m *Manager) Checkout(ctx context.Context, req CheckoutRequest) (string, error) {
	if strings.TrimSpace(req.PlanID) == "" {
		return "", apperr.Validation("planId is required")
	}
	db := m.db.WithContext(ctx)

	var user users.User
	if err := db.Preload("Profile").Where("id = ?", req.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.Unauthorized("User not found")
		}
		return "", apperr.Wrap(apperr.KindInternal, "load user", err)
	}

	regionID := ""
	if user.Profile != nil && user.Profile.Region != nil {
		regionID = *user.Profile.Region
	}
	if regionID == "" && m.resolver != nil {
		regionID = m.resolver.Resolve(ctx, req.IP)
	}

	var price plans.RegionalPrice
	err := db.Joins("JOIN plans ON plans.id = regional_prices.plan_id AND plans.active = ?", true).
		Where("regional_prices.plan_id = ? AND regional_prices.region_id = ? AND regional_prices.active = ?", req.PlanID, regionID, true).
		First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.NotFound("Plan not found")
		}
		return "", apperr.Wrap(apperr.KindInternal, "load price", err)
	}
	if price.StripePriceID == "" {
		return "", apperr.Precondition("Plan is not available for online checkout")
	}

	customerID, err := m.customerFor(ctx, &user)
	if err != nil {
		return "", err
	}

	url, err := m.provider.CreateCheckoutSession(ctx, stripe.CheckoutParams{
		CustomerID: customerID,
		PriceID:    price.StripePriceID,
		UserID:     user.ID,
		PlanID:     price.PlanID,
		SuccessURL: m.appURL + "/account",
		CancelURL:  m.appURL + "/account?canceled=1",
	})
	if err != nil {
		m.logger.Warn("checkout session failed", zap.String("user_id", user.ID), zap.Error(err))
		return "", apperr.Wrap(apperr.KindUpstream, "Failed to create checkout session", err)
	}
	return url, nil
}

// customerFor reuses the customer of the user's latest subscription or of the
// user, else creates one and stores it before any session is opened.
func (m *Manager) customerFor(ctx context.Context, user *users.User) (string, error) {
	db := m.db.WithContext(ctx)
	latest, err := subscriptions.Latest(db, user.ID)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "load subscription", err)
	}
	if latest != nil && latest.StripeCustomerID != "" {
		return latest.StripeCustomerID, nil
	}
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}

	id, err := m.provider.CreateCustomer(ctx, user.Email, user.Name, user.ID)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpstream, "Failed to create payment customer", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&users.User{}).Where("id = ?", user.ID).Update("stripe_customer_id", id).Error; err != nil {
			return err
		}
		if latest == nil {
			return nil
		}
		return tx.Model(&subscriptions.Subscription{}).
			Where("id = ? AND stripe_customer_id = ?", latest.ID, "").
			Updates(map[string]interface{}{
				"stripe_customer_id": id,
				"version":            gorm.Expr("version + 1"),
			}).Error
	})
	if err != nil {
		m.logger.Error("failed to save stripe customer", zap.String("user_id", user.ID), zap.Error(err))
		return "", apperr.Wrap(apperr.KindInternal, "save payment customer", err)
	}
	user.StripeCustomerID = &id
	return id, nil
}

// Portal opens the provider's self-service billing portal.
func (m *Manager) Portal(ctx context.Context, userID string) (string, error) {
	latest, err := subscriptions.Latest(m.db.WithContext(ctx), userID)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "load subscription", err)
	}
	if latest == nil || latest.StripeCustomerID == "" {
		return "", apperr.Precondition("No payment customer yet, subscribe first")
	}

	url, err := m.provider.CreatePortalSession(ctx, latest.StripeCustomerID, m.appURL+"/account")
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpstream, "Could not create billing portal session", err)
	}
	return url, nil
}

// ListPayments returns the user's payment history, newest first.
func (m *Manager) ListPayments(ctx context.Context, userID string) ([]billing.Payment, error) {
	payments := []billing.Payment{}
	err := m.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load payments", err)
	}
	return payments, nil
}
