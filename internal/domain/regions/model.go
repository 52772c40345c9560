package regions

// Region groups billing currency and display locale.
type Region struct {
	ID           string `gorm:"primaryKey;type:varchar(8)" json:"id"`
	Name         string `gorm:"not null" json:"name"`
	CurrencyCode string `gorm:"type:varchar(3);not null" json:"currencyCode"`
	Locale       string `gorm:"type:varchar(16);not null" json:"locale"`
	Active       bool   `gorm:"not null" json:"active"`
}

// Region identifiers used by the seeded catalog.
const (
	RegionBR = "BR"
	RegionUS = "US"
	RegionEU = "EU"
)
