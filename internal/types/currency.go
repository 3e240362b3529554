package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrencyPrecision applies to any currency not in the table below.
const DefaultCurrencyPrecision int32 = 2

// currencyPrecision maps ISO 4217 codes (lowercase) to the number of
// fractional digits on an invoice in that currency.
var currencyPrecision = map[string]int32{
	"aud": 2,
	"nzd": 2,
	"usd": 2,
	"eur": 2,
	"gbp": 2,
	"cad": 2,
	"inr": 2,
	"sgd": 2,
	"jpy": 0,
	"krw": 0,
	"kwd": 3,
	"bhd": 3,
}

// GetCurrencyPrecision returns the invoice precision for a currency code.
// Unknown codes fall back to DefaultCurrencyPrecision.
func GetCurrencyPrecision(currency string) int32 {
	if p, ok := currencyPrecision[strings.ToLower(currency)]; ok {
		return p
	}
	return DefaultCurrencyPrecision
}

// RoundToCurrencyPrecision rounds an amount to the currency's precision
// using round half-up. Intermediate computations keep full precision;
// this is applied once, to the values placed on the final breakdown.
func RoundToCurrencyPrecision(amount decimal.Decimal, currency string) decimal.Decimal {
	return RoundHalfUp(amount, GetCurrencyPrecision(currency))
}

var half = decimal.New(5, -1)

// RoundHalfUp rounds to the given number of decimal places with ties
// going toward positive infinity (0.005 -> 0.01, -0.005 -> 0.00).
func RoundHalfUp(amount decimal.Decimal, places int32) decimal.Decimal {
	return amount.Shift(places).Add(half).Floor().Shift(-places)
}
