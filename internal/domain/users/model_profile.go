package users

import "time"

// Profile is one-to-one with User and created lazily on the first profile or
// astrology update.
type Profile struct {
	ID          uint       `gorm:"primaryKey"`
	UserID      string     `gorm:"type:varchar(64);not null;uniqueIndex"`
	DateOfBirth *time.Time `gorm:"type:date"`
	BirthTime   *string    `gorm:"type:varchar(5)"` // HH:MM
	ZodiacSign  *string    `gorm:"type:varchar(20)"`
	MoonSign    *string    `gorm:"type:varchar(20)"`
	Ascendant   *string    `gorm:"type:varchar(20)"`
	Region      *string    `gorm:"type:varchar(8)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)
