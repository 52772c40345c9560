package astrology

import (
	"math"
	"time"
)

var signs = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// sunStarts holds the first day of each sign, ordered by calendar date.
var sunStarts = []struct {
	month time.Month
	day   int
	sign  string
}{
	{time.January, 20, "Aquarius"},
	{time.February, 19, "Pisces"},
	{time.March, 21, "Aries"},
	{time.April, 20, "Taurus"},
	{time.May, 21, "Gemini"},
	{time.June, 21, "Cancer"},
	{time.July, 23, "Leo"},
	{time.August, 23, "Virgo"},
	{time.September, 23, "Libra"},
	{time.October, 23, "Scorpio"},
	{time.November, 22, "Sagittarius"},
	{time.December, 22, "Capricorn"},
}

// SunSign returns the tropical sun sign for a birth date.
func SunSign(date time.Time) string {
	m, d := date.Month(), date.Day()
	sign := "Capricorn"
	for _, s := range sunStarts {
		if m > s.month || (m == s.month && d >= s.day) {
			sign = s.sign
		}
	}
	return sign
}

var j2000 = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// MoonSign approximates the moon's ecliptic longitude from its mean elements
// plus the largest periodic term. Accurate to roughly a degree, which is
// enough to pick a sign away from the cusps.
func MoonSign(at time.Time) string {
	d := at.UTC().Sub(j2000).Hours() / 24

	meanLongitude := 218.316 + 13.176396*d
	meanAnomaly := 134.963 + 13.064993*d
	lon := meanLongitude + 6.289*math.Sin(meanAnomaly*math.Pi/180)

	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	return signs[int(lon/30)%12]
}

// Chart is the derived astrology for a profile. Ascendant needs a birth
// location, which profiles do not carry, so it stays empty.
type Chart struct {
	SunSign   string
	MoonSign  string
	Ascendant string
}

// Compute derives a chart from a birth date and an optional HH:MM birth time
// in UTC. Without a time the moon is taken at noon.
func Compute(dateOfBirth time.Time, birthTime *string) Chart {
	hour, minute := 12, 0
	if birthTime != nil && *birthTime != "" {
		if t, err := time.Parse("15:04", *birthTime); err == nil {
			hour, minute = t.Hour(), t.Minute()
		}
	}
	at := time.Date(dateOfBirth.Year(), dateOfBirth.Month(), dateOfBirth.Day(), hour, minute, 0, 0, time.UTC)

	return Chart{
		SunSign:  SunSign(dateOfBirth),
		MoonSign: MoonSign(at),
	}
}
