package subscriptions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription is the persisted billing relationship of a user. Status is the
// only entitlement signal; CancelAtPeriodEnd affects renewal only.
type Subscription struct {
	ID                   string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID               string    `gorm:"type:varchar(64);not null;index:idx_subscriptions_user_created,priority:1" json:"userId"`
	StripeCustomerID     string    `gorm:"column:stripe_customer_id;type:varchar(128)" json:"stripeCustomerId"`
	StripeSubscriptionID *string   `gorm:"column:stripe_subscription_id;type:varchar(128);index" json:"stripeSubscriptionId"`
	PlanID               string    `gorm:"type:varchar(64);not null" json:"planId"`
	StripePriceID        *string   `gorm:"column:stripe_price_id;type:varchar(128)" json:"stripePriceId"`
	Status               Status    `gorm:"type:varchar(20);not null;default:'incomplete'" json:"status"`
	CancelAtPeriodEnd    bool      `gorm:"not null;default:false" json:"cancelAtPeriodEnd"`
	CurrentPeriodStart   time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd     time.Time `json:"currentPeriodEnd"`

	// Version guards against lost updates between user actions and webhooks.
	Version int64 `gorm:"not null;default:1" json:"-"`
	// LastEventAt is the creation time of the newest provider event applied.
	LastEventAt *time.Time `json:"-"`

	CreatedAt time.Time `gorm:"index:idx_subscriptions_user_created,priority:2" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}

// HasProviderHandle reports whether the subscription is linked to a live
// provider-side subscription.
func (s *Subscription) HasProviderHandle() bool {
	return s.StripeSubscriptionID != nil && *s.StripeSubscriptionID != ""
}

// Entitled reports whether the subscriber currently has access.
func (s *Subscription) Entitled() bool {
	return s.Status == StatusActive
}
