package tariff

import (
	"github.com/shopspring/decimal"

	jsoniter "github.com/json-iterator/go"

	ierr "github.com/gridbill/gridbill/internal/errors"
)

var one = decimal.NewFromInt(1)

// strictJSON rejects unknown keys: a misspelled or unsupported field in a
// plan or tariff document is a configuration error, never silently ignored.
var strictJSON = jsoniter.Config{
	DisallowUnknownFields: true,
	UseNumber:             true,
}.Froze()

// ParsePlan decodes and validates a billing plan document.
func ParsePlan(doc []byte) (*BillingPlan, error) {
	var plan BillingPlan
	if err := strictJSON.Unmarshal(doc, &plan); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Billing plan document has unknown or malformed fields").
			Mark(ierr.ErrValidation)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ParseRates decodes and validates a tariff rates document.
func ParseRates(doc []byte) (*TariffRates, error) {
	var rates TariffRates
	if err := strictJSON.Unmarshal(doc, &rates); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Tariff rates document has unknown or malformed fields").
			Mark(ierr.ErrRateConfig)
	}
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	return &rates, nil
}
