package subscriptions

import (
	"errors"

	"gorm.io/gorm"
)

// ErrVersionConflict means the row changed since it was read.
var ErrVersionConflict = errors.New("subscription was modified concurrently")

// Latest returns the user's most recent subscription, or nil when the user
// has none.
func Latest(tx *gorm.DB, userID string) (*Subscription, error) {
	var s Subscription
	err := tx.Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ByProviderID loads the subscription linked to a provider subscription id.
// It returns nil when no row matches.
func ByProviderID(tx *gorm.DB, providerID string) (*Subscription, error) {
	if providerID == "" {
		return nil, nil
	}
	var s Subscription
	err := tx.Where("stripe_subscription_id = ?", providerID).
		Order("created_at DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateVersioned writes updates only if s still carries the stored version,
// bumping it. On success s.Version is advanced; on ErrVersionConflict nothing
// was written.
func UpdateVersioned(tx *gorm.DB, s *Subscription, updates map[string]interface{}) error {
	cols := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		cols[k] = v
	}
	cols["version"] = gorm.Expr("version + 1")

	res := tx.Model(&Subscription{}).
		Where("id = ? AND version = ?", s.ID, s.Version).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	s.Version++
	return nil
}
