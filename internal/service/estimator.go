package service

import (
	"context"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/gridbill/gridbill/internal/domain/billing"
	"github.com/gridbill/gridbill/internal/domain/tariff"
	ierr "github.com/gridbill/gridbill/internal/errors"
	"github.com/gridbill/gridbill/internal/types"
)

// CostEstimator converts billables into itemized cost breakdowns. Charges
// apply in a fixed order: usage, demand, fixed, feed-in credit, then
// discount on a positive subtotal, then tax on the discounted base.
// Intermediates keep full precision; each output field is rounded to
// currency precision independently at the end. That ordering is what
// makes breakdowns match retailer invoices to the cent.
type CostEstimator interface {
	Estimate(ctx context.Context, billables []*billing.Billable, rates *tariff.TariffRates) ([]*billing.CostBreakdown, error)
}

type costEstimator struct {
	ServiceParams
}

// NewCostEstimator creates a new cost estimator.
func NewCostEstimator(params ServiceParams) CostEstimator {
	return &costEstimator{ServiceParams: params.withDefaults()}
}

func (e *costEstimator) Estimate(ctx context.Context, billables []*billing.Billable, rates *tariff.TariffRates) ([]*billing.CostBreakdown, error) {
	if len(billables) == 0 {
		return nil, ierr.NewError("no billables to estimate").
			WithHint("The cycle list is empty").
			Mark(ierr.ErrCycleConfig)
	}
	if err := rates.Validate(); err != nil {
		return nil, err
	}

	currency := rates.Currency
	if currency == "" {
		currency = e.Config.Billing.Currency
	}

	breakdowns := make([]*billing.CostBreakdown, 0, len(billables))
	for _, b := range billables {
		breakdown, err := e.estimateCycle(b, rates, currency)
		if err != nil {
			return nil, err
		}
		breakdowns = append(breakdowns, breakdown)
	}
	return breakdowns, nil
}

func (e *costEstimator) estimateCycle(b *billing.Billable, rates *tariff.TariffRates, currency string) (*billing.CostBreakdown, error) {
	if b.DayCount < 0 {
		return nil, ierr.NewErrorf("cycle %s has negative day count %d", b.CycleLabel, b.DayCount).
			Mark(ierr.ErrCycleConfig)
	}

	usage, err := e.usageCharge(b, rates)
	if err != nil {
		return nil, err
	}

	demand := decimal.Zero
	if b.DemandKW != nil && rates.DemandRate != nil {
		demand = b.DemandKW.Mul(*rates.DemandRate)
	}

	fixed := decimal.NewFromInt(int64(b.DayCount)).Mul(rates.DailyFixedRate)

	feedIn := decimal.Zero
	if rates.FeedInRate != nil {
		feedIn = b.ExportKWH.Mul(*rates.FeedInRate).Neg()
	}

	subtotal := usage.Add(demand).Add(fixed).Add(feedIn)

	// A net-credit cycle is not further discounted.
	discount := decimal.Zero
	if rates.DiscountFraction != nil && subtotal.IsPositive() {
		discount = subtotal.Mul(*rates.DiscountFraction).Neg()
	}

	taxableBase := subtotal.Add(discount)

	tax := decimal.Zero
	if rates.TaxEnabled {
		tax = taxableBase.Mul(rates.TaxFraction)
	}

	total := taxableBase.Add(tax)

	// Each field rounds its own full-precision value. Negative charges
	// outside the credit and discount fields are preserved, not clamped.
	return &billing.CostBreakdown{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_COST_BREAKDOWN),
		CycleLabel:     b.CycleLabel,
		Currency:       currency,
		UsageCharge:    types.RoundToCurrencyPrecision(usage, currency),
		DemandCharge:   types.RoundToCurrencyPrecision(demand, currency),
		FixedCharge:    types.RoundToCurrencyPrecision(fixed, currency),
		FeedInCredit:   types.RoundToCurrencyPrecision(feedIn, currency),
		DiscountAmount: types.RoundToCurrencyPrecision(discount, currency),
		TaxAmount:      types.RoundToCurrencyPrecision(tax, currency),
		Total:          types.RoundToCurrencyPrecision(total, currency),
	}, nil
}

// usageCharge sums kWh x rate over every import (flow, band) cell. A band
// present in the data without a configured rate fails the whole cycle;
// no partial bill is emitted.
func (e *costEstimator) usageCharge(b *billing.Billable, rates *tariff.TariffRates) (decimal.Decimal, error) {
	total := decimal.Zero
	for flow, bands := range b.Usage {
		if !flow.IsImport() {
			continue
		}
		if flow == types.FlowControlledLoadImport && rates.ControlledLoadRate != nil {
			total = total.Add(b.FlowTotal(flow).Mul(*rates.ControlledLoadRate))
			continue
		}
		for band, kwh := range bands {
			rate, ok := rates.UsageRates[band]
			if !ok {
				return decimal.Zero, ierr.NewErrorf("no usage rate for band %q", band).
					WithHint("Every TOU band present in the data needs a rate").
					WithReportableDetails(map[string]interface{}{
						"cycle":         b.CycleLabel,
						"band":          band,
						"flow":          flow,
						"bands_present": lo.Keys(b.BandLabels()),
					}).
					Mark(ierr.ErrRateConfig)
			}
			total = total.Add(kwh.Mul(rate))
		}
	}
	return total, nil
}
