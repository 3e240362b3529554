package tariff

import (
	"time"

	ierr "github.com/gridbill/gridbill/internal/errors"
	"github.com/gridbill/gridbill/internal/types"
)

// Compile parses the band's time strings and checks its fields. Must be
// called before Matches or Window.
func (b *TouBand) Compile() error {
	if b.Name == "" {
		return ierr.NewError("tou band name is required").
			Mark(ierr.ErrClassification)
	}
	if err := b.Days.Validate(); err != nil {
		return ierr.WithError(err).
			WithReportableDetails(map[string]interface{}{"band": b.Name}).
			Mark(ierr.ErrClassification)
	}
	for _, d := range b.Weekdays {
		if d < time.Sunday || d > time.Saturday {
			return ierr.NewErrorf("tou band %s has invalid weekday %d", b.Name, d).
				Mark(ierr.ErrClassification)
		}
	}
	start, err := types.ParseTimeOfDay(b.Start)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Band %s has an unparseable start time %q", b.Name, b.Start).
			Mark(ierr.ErrClassification)
	}
	end, err := types.ParseTimeOfDay(b.End)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Band %s has an unparseable end time %q", b.Name, b.End).
			Mark(ierr.ErrClassification)
	}
	b.window = types.TimeOfDayRange{Start: start, End: end}
	return nil
}

// Compile parses the demand window's time strings and checks its fields.
func (d *DemandCharge) Compile() error {
	if err := d.Method.Validate(); err != nil {
		return err
	}
	if err := d.Days.Validate(); err != nil {
		return err
	}
	if d.RollingSpanDays < 0 {
		return ierr.NewErrorf("rolling span must be positive, got %d", d.RollingSpanDays).
			Mark(ierr.ErrValidation)
	}
	start, err := types.ParseTimeOfDay(d.Start)
	if err != nil {
		return err
	}
	end, err := types.ParseTimeOfDay(d.End)
	if err != nil {
		return err
	}
	d.window = types.TimeOfDayRange{Start: start, End: end}
	return nil
}

// Validate compiles and checks the whole plan. Band-list completeness
// (the catch-all requirement) is the classifier's construction-time
// concern; this validates each piece in isolation.
func (p *BillingPlan) Validate() error {
	if p.Timezone != "" {
		if err := types.ValidateTimezone(p.Timezone); err != nil {
			return err
		}
	}

	switch p.Cycle {
	case CycleKindMonthly:
		if len(p.Periods) > 0 {
			return ierr.NewError("monthly cycle does not take explicit periods").
				WithHint("Use cycle=custom to supply explicit periods").
				Mark(ierr.ErrCycleConfig)
		}
	case CycleKindCustom:
		if len(p.Periods) == 0 {
			return ierr.NewError("custom cycle requires at least one period").
				Mark(ierr.ErrCycleConfig)
		}
	default:
		return ierr.NewErrorf("invalid cycle kind: %s", p.Cycle).
			WithHint("Cycle must be monthly or custom").
			Mark(ierr.ErrCycleConfig)
	}

	seen := make(map[string]bool, len(p.TouBands))
	for i := range p.TouBands {
		if err := p.TouBands[i].Compile(); err != nil {
			return err
		}
		if seen[p.TouBands[i].Name] {
			return ierr.NewErrorf("duplicate tou band name: %s", p.TouBands[i].Name).
				Mark(ierr.ErrClassification)
		}
		seen[p.TouBands[i].Name] = true
	}

	if p.Demand != nil {
		if err := p.Demand.Compile(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the rate structure's internal consistency. Coverage of
// the bands present in the data is checked against the billables at
// estimation time.
func (r *TariffRates) Validate() error {
	if len(r.UsageRates) == 0 && r.ControlledLoadRate == nil {
		return ierr.NewError("tariff has no usage rates").
			WithHint("Provide a usage rate per TOU band label").
			Mark(ierr.ErrRateConfig)
	}
	if r.DiscountFraction != nil {
		f := *r.DiscountFraction
		if f.IsNegative() || f.GreaterThan(one) {
			return ierr.NewErrorf("discount fraction must be within [0, 1], got %s", f).
				Mark(ierr.ErrRateConfig)
		}
	}
	if r.TaxEnabled && r.TaxFraction.IsNegative() {
		return ierr.NewErrorf("tax fraction must be non-negative, got %s", r.TaxFraction).
			Mark(ierr.ErrRateConfig)
	}
	return nil
}
