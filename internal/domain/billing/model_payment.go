package billing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment records a paid provider invoice. Amounts are minor currency units.
type Payment struct {
	ID                   string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID               string    `gorm:"type:varchar(64);not null;index" json:"userId"`
	SubscriptionID       string    `gorm:"type:varchar(64);index" json:"subscriptionId"`
	PlanID               string    `gorm:"type:varchar(64)" json:"planId"`
	StripeInvoiceID      string    `gorm:"column:stripe_invoice_id;type:varchar(128);uniqueIndex" json:"stripeInvoiceId"`
	StripeSubscriptionID string    `gorm:"column:stripe_subscription_id;type:varchar(128)" json:"stripeSubscriptionId"`
	Amount               int64     `gorm:"not null" json:"amount"`
	Currency             string    `gorm:"type:varchar(3)" json:"currency"`
	Status               string    `gorm:"type:varchar(20)" json:"status"`
	ReceiptURL           *string   `json:"receiptUrl,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
