package access

// AccessState is the product-facing reading of a subscription.
type AccessState string

const (
	AccessFull    AccessState = "full"
	AccessLimited AccessState = "limited"
	AccessLocked  AccessState = "locked"
)

// Capabilities unlocked by plan tier.
const (
	CapDailyReading     = "daily_reading"
	CapSunSign          = "sun_sign"
	CapMoonSign         = "moon_sign"
	CapExtendedSpreads  = "extended_spreads"
	CapUnlimitedReading = "unlimited_readings"
	CapFullChart        = "full_chart"
)
