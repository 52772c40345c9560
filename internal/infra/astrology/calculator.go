package astrology

import (
	"context"
	"errors"

	"arcana-app/internal/domain/users"
	"arcana-app/internal/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Calculator derives zodiac data from a stored profile and writes it back.
type Calculator struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewCalculator(db *gorm.DB, l *zap.Logger) *Calculator {
	return &Calculator{db: db, logger: logger.OrNop(l)}
}

// ComputeAndPersist reports whether the profile of userID had enough data to
// compute a chart and the result was saved.
func (c *Calculator) ComputeAndPersist(ctx context.Context, userID string) bool {
	var profile users.Profile
	err := c.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.logger.Error("astrology: load profile", zap.String("user_id", userID), zap.Error(err))
		}
		return false
	}
	if profile.DateOfBirth == nil {
		return false
	}

	chart := Compute(*profile.DateOfBirth, profile.BirthTime)

	err = c.db.WithContext(ctx).Model(&users.Profile{}).
		Where("id = ?", profile.ID).
		Updates(map[string]interface{}{
			"zodiac_sign": chart.SunSign,
			"moon_sign":   chart.MoonSign,
		}).Error
	if err != nil {
		c.logger.Error("astrology: save chart", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	return true
}
