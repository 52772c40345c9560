package astrology

import (
	"context"
	"testing"
	"time"

	"arcana-app/internal/domain/users"
	"arcana-app/internal/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSunSignBoundaries(t *testing.T) {
	cases := []struct {
		date time.Time
		want string
	}{
		{day(1990, time.January, 1), "Capricorn"},
		{day(1990, time.January, 19), "Capricorn"},
		{day(1990, time.January, 20), "Aquarius"},
		{day(1990, time.March, 20), "Pisces"},
		{day(1990, time.March, 21), "Aries"},
		{day(1990, time.July, 23), "Leo"},
		{day(1990, time.November, 21), "Scorpio"},
		{day(1990, time.December, 21), "Sagittarius"},
		{day(1990, time.December, 31), "Capricorn"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SunSign(tc.date), tc.date.Format("01-02"))
	}
}

func TestMoonSignAtEpoch(t *testing.T) {
	// mean-element longitude at J2000 is about 222.8 degrees
	assert.Equal(t, "Scorpio", MoonSign(j2000))
}

func TestComputeUsesBirthTime(t *testing.T) {
	noon := Compute(day(2000, time.January, 1), nil)
	assert.Equal(t, "Capricorn", noon.SunSign)
	assert.Equal(t, "Scorpio", noon.MoonSign)
	assert.Empty(t, noon.Ascendant)

	// about 13 degrees a day puts the moon in Sagittarius two days later
	later := Compute(day(2000, time.January, 3), nil)
	assert.NotEqual(t, noon.MoonSign, later.MoonSign)
}

func TestComputeAndPersist(t *testing.T) {
	db := testdb.New(t)
	calc := NewCalculator(db, nil)
	ctx := context.Background()

	assert.False(t, calc.ComputeAndPersist(ctx, "missing"))

	require.NoError(t, db.Create(&users.Profile{UserID: "u1"}).Error)
	assert.False(t, calc.ComputeAndPersist(ctx, "u1"), "no birth date")

	dob := day(1990, time.August, 1)
	birth := "08:30"
	require.NoError(t, db.Model(&users.Profile{}).Where("user_id = ?", "u1").
		Updates(map[string]interface{}{"date_of_birth": dob, "birth_time": birth}).Error)

	require.True(t, calc.ComputeAndPersist(ctx, "u1"))

	var p users.Profile
	require.NoError(t, db.Where("user_id = ?", "u1").First(&p).Error)
	require.NotNil(t, p.ZodiacSign)
	assert.Equal(t, "Leo", *p.ZodiacSign)
	require.NotNil(t, p.MoonSign)
	assert.Equal(t, Compute(dob, &birth).MoonSign, *p.MoonSign)
}
