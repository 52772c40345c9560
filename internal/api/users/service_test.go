package users

import (
	"context"
	"sync"
	"testing"
	"time"

	"arcana-app/internal/domain/access"
	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/domain/users"
	"arcana-app/internal/infra/astrology"
	"arcana-app/internal/pkg/apperr"
	"arcana-app/internal/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type staticResolver string

func (r staticResolver) Resolve(ctx context.Context, ip string) string { return string(r) }

// dbResolver touches the store while resolving, which fails if a transaction
// is holding the single sqlite connection.
type dbResolver struct {
	db *gorm.DB

	mu    sync.Mutex
	calls int
	errs  []error
}

func (r *dbResolver) Resolve(ctx context.Context, ip string) string {
	ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	var n int64
	err := r.db.WithContext(ctx).Model(&users.User{}).Count(&n).Error

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if err != nil {
		r.errs = append(r.errs, err)
	}
	return "EU"
}

type failingCalc struct{}

func (failingCalc) ComputeAndPersist(ctx context.Context, userID string) bool { return false }

func strPtr(s string) *string { return &s }

func newUser(t *testing.T, db *gorm.DB) *users.User {
	t.Helper()
	u := users.User{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func TestReadsBeforeProfileExist(t *testing.T) {
	db := testdb.New(t)
	svc := NewService(db, staticResolver("US"), astrology.NewCalculator(db, nil), nil)
	u := newUser(t, db)

	profile, err := svc.GetUserProfile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Nil(t, profile)

	astro, err := svc.GetUserAstrology(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Nil(t, astro)
}

func TestUpdateProfileCreatesAndPatches(t *testing.T) {
	db := testdb.New(t)
	svc := NewService(db, staticResolver("EU"), astrology.NewCalculator(db, nil), nil)
	u := newUser(t, db)
	ctx := context.Background()

	view, err := svc.UpdateProfile(ctx, u.ID, "8.8.8.8", ProfileInput{
		Username:    strPtr("  Ada Lovelace "),
		DateOfBirth: strPtr("1990-08-01"),
		AvatarURL:   strPtr("https://img.example/ada.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", view.User.Name)
	assert.Equal(t, "https://img.example/ada.png", view.User.Image)
	require.NotNil(t, view.Profile)
	assert.Equal(t, "1990-08-01", *view.Profile.DateOfBirth)
	assert.Nil(t, view.Profile.BirthTime)
	require.NotNil(t, view.Profile.Region)
	assert.Equal(t, "EU", *view.Profile.Region)

	// only supplied fields change
	view, err = svc.UpdateProfile(ctx, u.ID, "8.8.8.8", ProfileInput{BirthTime: strPtr("07:05")})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", view.User.Name)
	assert.Equal(t, "1990-08-01", *view.Profile.DateOfBirth)
	assert.Equal(t, "07:05", *view.Profile.BirthTime)

	var n int64
	require.NoError(t, db.Model(&users.Profile{}).Where("user_id = ?", u.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestUpdateProfileValidation(t *testing.T) {
	db := testdb.New(t)
	svc := NewService(db, staticResolver("US"), astrology.NewCalculator(db, nil), nil)
	u := newUser(t, db)

	cases := map[string]ProfileInput{
		"short username": {Username: strPtr("ab")},
		"bad date":       {DateOfBirth: strPtr("01/08/1990")},
		"future date":    {DateOfBirth: strPtr("2999-01-01")},
		"bad time":       {BirthTime: strPtr("25:99")},
		"bad avatar":     {AvatarURL: strPtr("javascript:alert(1)")},
	}
	for name, in := range cases {
		_, err := svc.UpdateProfile(context.Background(), u.ID, "", in)
		assert.True(t, apperr.Is(err, apperr.KindValidation), name)
	}

	var stored users.User
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	assert.Equal(t, "Ada", stored.Name)
}

func TestUpdateProfileUnknownUserWritesNothing(t *testing.T) {
	db := testdb.New(t)
	svc := NewService(db, staticResolver("US"), astrology.NewCalculator(db, nil), nil)

	_, err := svc.UpdateProfile(context.Background(), "ghost", "", ProfileInput{DateOfBirth: strPtr("1990-01-01")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	var n int64
	require.NoError(t, db.Model(&users.Profile{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUpdateUserAstrology(t *testing.T) {
	db := testdb.New(t)
	svc := NewService(db, staticResolver("BR"), astrology.NewCalculator(db, nil), nil)
	u := newUser(t, db)

	view, err := svc.UpdateUserAstrology(context.Background(), u.ID, "", AstrologyInput{
		DateOfBirth: "2000-01-01",
		BirthTime:   strPtr("12:00"),
	})
	require.NoError(t, err)
	require.NotNil(t, view.ZodiacSign)
	assert.Equal(t, "Capricorn", *view.ZodiacSign)
	require.NotNil(t, view.MoonSign)
	assert.Equal(t, "Scorpio", *view.MoonSign)
	assert.Nil(t, view.Ascendant)

	got, err := svc.GetUserAstrology(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "2000-01-01", *got.DateOfBirth)
}

func TestUpdateUserAstrologyFailures(t *testing.T) {
	db := testdb.New(t)
	svc := NewService(db, staticResolver("BR"), failingCalc{}, nil)
	u := newUser(t, db)

	_, err := svc.UpdateUserAstrology(context.Background(), u.ID, "", AstrologyInput{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.UpdateUserAstrology(context.Background(), u.ID, "", AstrologyInput{DateOfBirth: "not-a-date"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.UpdateUserAstrology(context.Background(), u.ID, "", AstrologyInput{DateOfBirth: "1990-05-05"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
	assert.Equal(t, "Failed to calculate astrology", apperr.PublicMessage(err))
}

func TestMeIncludesLatestSubscription(t *testing.T) {
	db := testdb.New(t)
	svc := NewService(db, staticResolver("BR"), astrology.NewCalculator(db, nil), nil)
	u := newUser(t, db)

	me, err := svc.Me(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, me.User.Email)
	assert.Nil(t, me.Profile)
	assert.Nil(t, me.Subscription)
	assert.Equal(t, access.AccessLocked, me.Access.State)

	require.NoError(t, db.Create(&subscriptions.Subscription{UserID: u.ID, PlanID: "basic", Status: subscriptions.StatusActive}).Error)
	me, err = svc.Me(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, me.Subscription)
	assert.True(t, me.Subscription.Entitled)
	assert.Equal(t, access.AccessFull, me.Access.State)
	assert.True(t, me.Access.Allows(access.CapSunSign))
}

func TestUpdateProfileResolvesRegionOutsideTransaction(t *testing.T) {
	db := testdb.New(t)
	resolver := &dbResolver{db: db}
	svc := NewService(db, resolver, astrology.NewCalculator(db, nil), nil)
	u := newUser(t, db)
	ctx := context.Background()

	view, err := svc.UpdateProfile(ctx, u.ID, "8.8.8.8", ProfileInput{Username: strPtr("Ada L")})
	require.NoError(t, err)
	require.NotNil(t, view.Profile.Region)
	assert.Equal(t, "EU", *view.Profile.Region)
	assert.Equal(t, 1, resolver.calls)
	assert.Empty(t, resolver.errs)

	// an existing profile keeps its region without another lookup
	_, err = svc.UpdateUserAstrology(ctx, u.ID, "1.1.1.1", AstrologyInput{DateOfBirth: "1990-08-01"})
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.calls)
}

func TestUpdateProfileKeepsChartInStepWithBirthDate(t *testing.T) {
	db := testdb.New(t)
	svc := NewService(db, staticResolver("US"), astrology.NewCalculator(db, nil), nil)
	u := newUser(t, db)
	ctx := context.Background()

	sign := func() (*string, *string) {
		var p users.Profile
		require.NoError(t, db.First(&p, "user_id = ?", u.ID).Error)
		return p.ZodiacSign, p.MoonSign
	}

	_, err := svc.UpdateUserAstrology(ctx, u.ID, "", AstrologyInput{DateOfBirth: "1990-08-01"})
	require.NoError(t, err)
	sun, _ := sign()
	require.NotNil(t, sun)
	assert.Equal(t, "Leo", *sun)

	_, err = svc.UpdateProfile(ctx, u.ID, "", ProfileInput{DateOfBirth: strPtr("2000-01-01")})
	require.NoError(t, err)
	sun, moon := sign()
	require.NotNil(t, sun)
	assert.Equal(t, "Capricorn", *sun)
	assert.NotNil(t, moon)

	_, err = svc.UpdateProfile(ctx, u.ID, "", ProfileInput{DateOfBirth: strPtr("")})
	require.NoError(t, err)
	sun, moon = sign()
	assert.Nil(t, sun)
	assert.Nil(t, moon)
}
