package plans

import (
	"time"

	"gorm.io/datatypes"
)

type Plan struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Type      string    `gorm:"type:varchar(20);not null" json:"type"` // basic | intermediate | premium
	Popular   bool      `gorm:"not null;default:false" json:"popular"`
	Active    bool      `gorm:"not null;index" json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RegionalPrice is the amount for one (plan, region) pair, always in minor
// currency units.
type RegionalPrice struct {
	ID            string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	PlanID        string `gorm:"type:varchar(64);not null;index:idx_regional_prices_plan_region,priority:1" json:"planId"`
	RegionID      string `gorm:"type:varchar(8);not null;index:idx_regional_prices_plan_region,priority:2" json:"regionId"`
	Amount        int64  `gorm:"not null" json:"amount"`
	Interval      string `gorm:"type:varchar(10);not null;default:'month'" json:"interval"` // month | quarter | year
	StripePriceID string `gorm:"column:stripe_price_id;type:varchar(128);index" json:"stripePriceId"`
	Active        bool   `gorm:"not null" json:"active"`
}

type RegionalPlanContent struct {
	ID          uint                        `gorm:"primaryKey" json:"-"`
	PlanID      string                      `gorm:"type:varchar(64);not null;uniqueIndex:idx_regional_content_plan_region,priority:1" json:"planId"`
	RegionID    string                      `gorm:"type:varchar(8);not null;uniqueIndex:idx_regional_content_plan_region,priority:2" json:"regionId"`
	Title       string                      `gorm:"not null" json:"title"`
	Description string                      `json:"description"`
	Features    datatypes.JSONSlice[string] `json:"features"`
	Active      bool                        `gorm:"not null" json:"active"`
}

// Billing intervals.
const (
	IntervalMonth   = "month"
	IntervalQuarter = "quarter"
	IntervalYear    = "year"
)
