package plans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "R$ 29,90", FormatAmount(2990, "BRL"))
	assert.Equal(t, "R$ 1.234,56", FormatAmount(123456, "BRL"))
	assert.Equal(t, "$9.99", FormatAmount(999, "USD"))
	assert.Equal(t, "$1,000,000.00", FormatAmount(100000000, "usd"))
	assert.Equal(t, "7,50 €", FormatAmount(750, "EUR"))
	assert.Equal(t, "$0.05", FormatAmount(5, "USD"))
}

func TestParseAmountRoundTrip(t *testing.T) {
	fixtures := map[string][]int64{
		"BRL": {0, 5, 990, 2990, 123456, 9999999},
		"USD": {1, 999, 1999, 100000000},
		"EUR": {750, 1499, 250000},
	}
	for currency, amounts := range fixtures {
		for _, amount := range amounts {
			display := FormatAmount(amount, currency)
			got, err := ParseAmount(display, currency)
			require.NoError(t, err, display)
			assert.Equal(t, amount, got, display)
		}
	}
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	_, err := ParseAmount("", "USD")
	assert.Error(t, err)

	_, err = ParseAmount("$abc", "USD")
	assert.Error(t, err)

	_, err = ParseAmount("$1.005", "USD")
	assert.Error(t, err)
}
