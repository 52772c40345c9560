package users

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"arcana-app/internal/domain/access"
	"arcana-app/internal/domain/plans"
	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/domain/users"
	"arcana-app/internal/pkg/apperr"
	"arcana-app/internal/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegionResolver derives a region id from a caller IP.
type RegionResolver interface {
	Resolve(ctx context.Context, ip string) string
}

// AstrologyCalculator derives and stores zodiac fields for a user's profile.
type AstrologyCalculator interface {
	ComputeAndPersist(ctx context.Context, userID string) bool
}

type Service struct {
	db       *gorm.DB
	resolver RegionResolver
	calc     AstrologyCalculator
	logger   *zap.Logger
}

func NewService(db *gorm.DB, resolver RegionResolver, calc AstrologyCalculator, l *zap.Logger) *Service {
	return &Service{db: db, resolver: resolver, calc: calc, logger: logger.OrNop(l)}
}

// ProfileInput patches the profile. Nil fields are left untouched.
type ProfileInput struct {
	Username    *string `json:"username"`
	DateOfBirth *string `json:"dateOfBirth"`
	BirthTime   *string `json:"birthTime"`
	AvatarURL   *string `json:"avatarUrl"`
}

// AstrologyInput carries the birth data used for a chart.
type AstrologyInput struct {
	DateOfBirth string  `json:"dateOfBirth"`
	BirthTime   *string `json:"birthTime"`
}

func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(users.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.Validation("dateOfBirth must be a date in YYYY-MM-DD format")
	}
	if d.After(time.Now()) {
		return time.Time{}, apperr.Validation("dateOfBirth cannot be in the future")
	}
	return d, nil
}

func parseBirthTime(s string) (string, error) {
	t, err := time.Parse(users.TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return "", apperr.Validation("birthTime must be in HH:MM format")
	}
	return t.Format(users.TimeLayout), nil
}

// profileChanges validates in and returns the column updates for the profile
// and user rows.
func profileChanges(in ProfileInput) (profile, user map[string]interface{}, err error) {
	profile = map[string]interface{}{}
	user = map[string]interface{}{}

	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if len([]rune(name)) < 3 {
			return nil, nil, apperr.Validation("username must be at least 3 characters")
		}
		user["name"] = name
	}
	if in.AvatarURL != nil {
		avatar := strings.TrimSpace(*in.AvatarURL)
		if avatar != "" {
			u, perr := url.ParseRequestURI(avatar)
			if perr != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return nil, nil, apperr.Validation("avatarUrl must be an http(s) URL")
			}
		}
		user["image"] = avatar
	}
	if in.DateOfBirth != nil {
		if strings.TrimSpace(*in.DateOfBirth) == "" {
			profile["date_of_birth"] = nil
		} else {
			d, derr := parseDate(*in.DateOfBirth)
			if derr != nil {
				return nil, nil, derr
			}
			profile["date_of_birth"] = d
		}
	}
	if in.BirthTime != nil {
		if strings.TrimSpace(*in.BirthTime) == "" {
			profile["birth_time"] = nil
		} else {
			bt, terr := parseBirthTime(*in.BirthTime)
			if terr != nil {
				return nil, nil, terr
			}
			profile["birth_time"] = bt
		}
	}
	return profile, user, nil
}

// UpdateProfile patches the user and upserts the profile in one transaction.
// A changed birth date recomputes the chart; a cleared one clears it.
func (s *Service) UpdateProfile(ctx context.Context, userID, ip string, in ProfileInput) (*ProfileView, error) {
	profileCols, userCols, err := profileChanges(in)
	if err != nil {
		return nil, err
	}
	dob, dobSet := profileCols["date_of_birth"]
	if dobSet && dob == nil {
		profileCols["zodiac_sign"] = nil
		profileCols["moon_sign"] = nil
	}
	_, timeSet := profileCols["birth_time"]
	recompute := (dobSet && dob != nil) || timeSet

	region, err := s.regionForNewProfile(ctx, userID, ip)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "update profile", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		if len(userCols) > 0 {
			if err := tx.Model(&users.User{}).Where("id = ?", userID).Updates(userCols).Error; err != nil {
				return err
			}
		}
		return upsertProfile(tx, userID, region, profileCols)
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindInternal, "update profile", err)
	}

	if recompute && s.calc != nil && !s.calc.ComputeAndPersist(ctx, userID) {
		s.logger.Warn("astrology not recomputed after profile update", zap.String("user_id", userID))
	}
	return s.GetUserProfile(ctx, userID)
}

// UpdateUserAstrology stores the birth data, then recomputes the chart.
func (s *Service) UpdateUserAstrology(ctx context.Context, userID, ip string, in AstrologyInput) (*AstrologyView, error) {
	if strings.TrimSpace(in.DateOfBirth) == "" {
		return nil, apperr.Validation("dateOfBirth is required")
	}
	dob, err := parseDate(in.DateOfBirth)
	if err != nil {
		return nil, err
	}
	cols := map[string]interface{}{"date_of_birth": dob}
	if in.BirthTime != nil && strings.TrimSpace(*in.BirthTime) != "" {
		bt, err := parseBirthTime(*in.BirthTime)
		if err != nil {
			return nil, err
		}
		cols["birth_time"] = bt
	} else {
		cols["birth_time"] = nil
	}

	region, err := s.regionForNewProfile(ctx, userID, ip)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "update astrology", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		return upsertProfile(tx, userID, region, cols)
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindInternal, "update astrology", err)
	}

	if !s.calc.ComputeAndPersist(ctx, userID) {
		s.logger.Error("astrology calculation failed", zap.String("user_id", userID))
		return nil, apperr.New(apperr.KindInternal, "Failed to calculate astrology")
	}
	return s.GetUserAstrology(ctx, userID)
}

func requireUser(tx *gorm.DB, userID string) error {
	var n int64
	if err := tx.Model(&users.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}

// regionForNewProfile resolves the caller's region when the user has no
// profile yet. It runs before any transaction opens since Resolve may call
// out to the geo service.
func (s *Service) regionForNewProfile(ctx context.Context, userID, ip string) (*string, error) {
	if s.resolver == nil {
		return nil, nil
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&users.Profile{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, nil
	}
	region := s.resolver.Resolve(ctx, ip)
	return &region, nil
}

// upsertProfile patches the profile row, creating it on first use with
// region.
func upsertProfile(tx *gorm.DB, userID string, region *string, cols map[string]interface{}) error {
	var profile users.Profile
	err := tx.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = users.Profile{UserID: userID, Region: region}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if len(cols) == 0 {
		return nil
	}
	return tx.Model(&users.Profile{}).Where("id = ?", profile.ID).Updates(cols).Error
}

func (s *Service) loadUser(ctx context.Context, userID string) (*users.User, error) {
	var user users.User
	err := s.db.WithContext(ctx).Preload("Profile").Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load user", err)
	}
	return &user, nil
}

// GetUserProfile returns the merged user and profile view, or nil when the
// profile has not been created yet.
func (s *Service) GetUserProfile(ctx context.Context, userID string) (*ProfileView, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		return nil, nil
	}
	return buildProfileView(user), nil
}

// GetUserAstrology returns nil when the user has no profile yet.
func (s *Service) GetUserAstrology(ctx context.Context, userID string) (*AstrologyView, error) {
	var profile users.Profile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load astrology", err)
	}
	return buildAstrologyView(&profile), nil
}

// Me returns the session view: user, profile, latest subscription and the
// access it grants.
func (s *Service) Me(ctx context.Context, userID string) (*MeResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sub, err := subscriptions.Latest(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load subscription", err)
	}

	var plan *plans.Plan
	if sub != nil {
		var p plans.Plan
		err := s.db.WithContext(ctx).First(&p, "id = ?", sub.PlanID).Error
		switch {
		case err == nil:
			plan = &p
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperr.Wrap(apperr.KindInternal, "load plan", err)
		}
	}

	view := buildProfileView(user)
	return &MeResponse{
		User:         view.User,
		Profile:      view.Profile,
		Subscription: buildSubscriptionView(sub),
		Access:       access.ComputePolicy(sub, plan),
	}, nil
}
