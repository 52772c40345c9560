package billing

import "time"

// ProcessedEvent marks a provider webhook event as applied. It is written in
// the same transaction as the event's effect.
type ProcessedEvent struct {
	EventID     string    `gorm:"primaryKey;type:varchar(128)"`
	Type        string    `gorm:"type:varchar(64);not null"`
	ProcessedAt time.Time `gorm:"not null"`
}
