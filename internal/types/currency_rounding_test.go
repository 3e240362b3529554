package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// TestCurrencyRounding_AllPrecisions tests rounding for the configured currencies
func TestCurrencyRounding_AllPrecisions(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		currency    string
		expected    string
		description string
	}{
		{
			name:        "AUD_Standard",
			amount:      "10.275",
			currency:    "aud",
			expected:    "10.28",
			description: "AUD rounds half up to 2 decimals",
		},
		{
			name:        "AUD_RoundDown",
			amount:      "10.271",
			currency:    "aud",
			expected:    "10.27",
			description: "Below the midpoint rounds down",
		},
		{
			name:        "USD_SubCent",
			amount:      "0.005",
			currency:    "usd",
			expected:    "0.01",
			description: "0.005 rounds up to 0.01",
		},
		{
			name:        "JPY_NoDecimals",
			amount:      "1023.5",
			currency:    "jpy",
			expected:    "1024",
			description: "JPY rounds half up to whole yen",
		},
		{
			name:        "KWD_ThreeDecimals",
			amount:      "1.23456",
			currency:    "kwd",
			expected:    "1.235",
			description: "KWD keeps three decimals",
		},
		{
			name:        "Unknown_DefaultPrecision",
			amount:      "5.555",
			currency:    "xyz",
			expected:    "5.56",
			description: "Unknown currencies use the default 2-decimal precision",
		},
		{
			name:        "Negative_HalfUp",
			amount:      "-10.275",
			currency:    "aud",
			expected:    "-10.27",
			description: "Half-up sends negative ties toward positive infinity",
		},
		{
			name:        "Negative_BelowMidpoint",
			amount:      "-10.276",
			currency:    "aud",
			expected:    "-10.28",
			description: "Past the midpoint a negative rounds away",
		},
		{
			name:        "Zero",
			amount:      "0.00",
			currency:    "aud",
			expected:    "0.00",
			description: "Zero remains zero",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			expected := decimal.RequireFromString(tt.expected)

			rounded := RoundToCurrencyPrecision(amount, tt.currency)

			assert.True(t, rounded.Equal(expected),
				"%s: expected %s, got %s", tt.description, expected, rounded)
		})
	}
}

func TestGetCurrencyPrecision(t *testing.T) {
	assert.Equal(t, int32(2), GetCurrencyPrecision("AUD"))
	assert.Equal(t, int32(0), GetCurrencyPrecision("jpy"))
	assert.Equal(t, int32(3), GetCurrencyPrecision("bhd"))
	assert.Equal(t, DefaultCurrencyPrecision, GetCurrencyPrecision("unknown"))
}

// TestRoundHalfUp_ErrorBound checks the rounding-stability property: the
// rounding error on any single field never exceeds half a cent, so the
// total error across an itemized breakdown stays within 0.01 per field.
func TestRoundHalfUp_ErrorBound(t *testing.T) {
	halfCent := decimal.RequireFromString("0.005")
	values := []string{"1.2345", "99.9949", "0.0051", "-3.3333", "216.0049"}
	for _, v := range values {
		d := decimal.RequireFromString(v)
		err := RoundHalfUp(d, 2).Sub(d).Abs()
		assert.True(t, err.LessThanOrEqual(halfCent), "rounding error %s for %s", err, v)
	}
}
