package users

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string  `gorm:"primaryKey;type:varchar(64)"`
	Name         string
	Email        string  `gorm:"not null;uniqueIndex:idx_users_email"`
	Image        string
	Password     *string `gorm:""`
	AuthProvider string  `gorm:"type:varchar(20);not null;default:'credentials'"`
	GoogleSub    *string `gorm:"uniqueIndex:idx_users_google_sub"`
	Role         string  `gorm:"type:varchar(20);not null;default:'user'"`

	StripeCustomerID *string `gorm:"column:stripe_customer_id;uniqueIndex:idx_users_stripe_customer_id"`

	Profile *Profile `gorm:"foreignKey:UserID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Auth providers.
const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
)

// Roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
