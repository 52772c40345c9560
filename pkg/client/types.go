package client

import "time"

type Region struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CurrencyCode string `json:"currencyCode"`
	Locale       string `json:"locale"`
}

type Price struct {
	ID            string `json:"id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Interval      string `json:"interval"`
	StripePriceID string `json:"stripePriceId"`
	Formatted     string `json:"formatted"`
}

type Plan struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Popular     bool     `json:"popular"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	Prices      []Price  `json:"prices"`
}

// Catalog is the plan list for one region. Price is set only when a single
// plan with one price was requested.
type Catalog struct {
	Region Region `json:"region"`
	Plans  []Plan `json:"plans"`
	Price  *int64 `json:"price,omitempty"`
}

type Subscription struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"userId"`
	PlanID               string    `json:"planId"`
	Status               string    `json:"status"`
	CancelAtPeriodEnd    bool      `json:"cancelAtPeriodEnd"`
	StripeSubscriptionID *string   `json:"stripeSubscriptionId"`
	CurrentPeriodStart   time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd     time.Time `json:"currentPeriodEnd"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Subscriber actions.
const (
	ActionCancel            = "cancel"
	ActionReactivate        = "reactivate"
	ActionCancelImmediately = "cancel-immediately"
)

type UpdateSubscriptionRequest struct {
	Action         string `json:"action"`
	SubscriptionID string `json:"subscriptionId"`
	UserID         string `json:"userId"`
}
