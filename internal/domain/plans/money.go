package plans

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type currencyFormat struct {
	symbol    string
	suffix    bool
	decimal   string
	thousands string
}

var currencyFormats = map[string]currencyFormat{
	"BRL": {symbol: "R$ ", decimal: ",", thousands: "."},
	"USD": {symbol: "$", decimal: ".", thousands: ","},
	"EUR": {symbol: " €", suffix: true, decimal: ",", thousands: "."},
}

func formatFor(currency string) currencyFormat {
	if f, ok := currencyFormats[strings.ToUpper(currency)]; ok {
		return f
	}
	return currencyFormat{symbol: strings.ToUpper(currency) + " ", decimal: ".", thousands: ","}
}

// FormatAmount renders an amount in minor units for display, e.g. 2990 BRL
// -> "R$ 29,90".
func FormatAmount(amount int64, currency string) string {
	f := formatFor(currency)

	neg := amount < 0
	if neg {
		amount = -amount
	}
	units := fmt.Sprintf("%d", amount/100)
	cents := fmt.Sprintf("%02d", amount%100)

	var grouped strings.Builder
	for i, r := range units {
		if i > 0 && (len(units)-i)%3 == 0 {
			grouped.WriteString(f.thousands)
		}
		grouped.WriteRune(r)
	}

	number := grouped.String() + f.decimal + cents
	if neg {
		number = "-" + number
	}
	if f.suffix {
		return number + f.symbol
	}
	return f.symbol + number
}

// ParseAmount is the inverse of FormatAmount. It returns the amount in minor
// units and fails when the text carries sub-cent precision.
func ParseAmount(display, currency string) (int64, error) {
	f := formatFor(currency)

	s := strings.TrimSpace(display)
	s = strings.ReplaceAll(s, strings.TrimSpace(f.symbol), "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, f.thousands, "")
	if f.decimal != "." {
		s = strings.ReplaceAll(s, f.decimal, ".")
	}
	if s == "" {
		return 0, fmt.Errorf("empty amount %q", display)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", display, err)
	}
	minor := d.Shift(2)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has sub-cent precision", display)
	}
	return minor.IntPart(), nil
}
