// Package tariff models the billing plan (cycle specification, TOU bands,
// demand charge) and the rate structure applied to billables. Both are
// explicit, validated structs; open-ended mapping documents are rejected
// on unknown keys at parse time.
package tariff

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gridbill/gridbill/internal/types"
)

// CycleKind selects how the series is segmented into billing cycles.
type CycleKind string

const (
	// CycleKindMonthly segments on calendar-month boundaries, first cycle
	// aligned to the first day present in the series.
	CycleKindMonthly CycleKind = "monthly"
	// CycleKindCustom segments on an explicit ordered list of date ranges.
	CycleKindCustom CycleKind = "custom"
)

// CyclePeriod is one explicit billing cycle as requested by the caller:
// a pair of calendar dates with an inclusive end. The segmenter converts
// the inclusive end to an exclusive interval boundary.
type CyclePeriod struct {
	// Start is the first calendar date of the cycle, "YYYY-MM-DD".
	Start string `json:"start"`
	// End is the last calendar date of the cycle, inclusive, "YYYY-MM-DD".
	End string `json:"end"`
}

// TouBand is one time-of-use rule: a label plus an applicability predicate
// over weekday and local time-of-day. Bands are evaluated in list order
// with first-match-wins semantics.
type TouBand struct {
	// Name labels the band, e.g. "peak", "offpeak".
	Name string `json:"name"`
	// Days restricts the band to a weekday shorthand set; empty means all days.
	Days types.DaySet `json:"days,omitempty"`
	// Weekdays, when non-empty, is an explicit weekday set overriding Days.
	Weekdays []time.Weekday `json:"weekdays,omitempty"`
	// Start and End bound the local time-of-day window, "HH:MM". Start
	// after End wraps across midnight; equal (or 00:00-24:00) means all hours.
	Start string `json:"start"`
	End   string `json:"end"`

	window types.TimeOfDayRange
}

// Window returns the compiled time-of-day range. Valid only after Compile.
func (b *TouBand) Window() types.TimeOfDayRange {
	return b.window
}

// appliesOn reports whether the band covers the given weekday.
func (b *TouBand) appliesOn(wd time.Weekday) bool {
	if len(b.Weekdays) > 0 {
		for _, d := range b.Weekdays {
			if d == wd {
				return true
			}
		}
		return false
	}
	return b.Days.Contains(wd)
}

// Matches reports whether the band applies at the given local time.
func (b *TouBand) Matches(local time.Time) bool {
	if !b.appliesOn(local.Weekday()) {
		return false
	}
	minute := types.MinuteOfDay(local.Hour()*60 + local.Minute())
	return b.window.Contains(minute)
}

// IsCatchAll reports whether the band matches every weekday and every
// time of day.
func (b *TouBand) IsCatchAll() bool {
	if len(b.Weekdays) > 0 {
		seen := make(map[time.Weekday]bool, len(b.Weekdays))
		for _, d := range b.Weekdays {
			seen[d] = true
		}
		if len(seen) < 7 {
			return false
		}
	} else if b.Days != types.DaySetAll && b.Days != "" {
		return false
	}
	return b.window.IsAllDay()
}

// DemandCharge configures the demand-charge input computation: a daily
// window on a weekday set and the method deriving one kW figure per cycle.
type DemandCharge struct {
	// Start and End bound the daily window, "HH:MM", half-open.
	Start string `json:"start"`
	End   string `json:"end"`
	// Days restricts the window to a weekday set; empty means all days.
	Days types.DaySet `json:"days,omitempty"`
	// Method is peak or rolling_avg.
	Method types.DemandMethod `json:"method"`
	// RollingSpanDays is the rolling-average span; 0 means the engine default.
	RollingSpanDays int `json:"rolling_span_days,omitempty"`
	// AllowLookback opts into seeding the rolling window with samples from
	// the immediately preceding cycle. Off by default: bills computed from
	// in-cycle samples only are reproducible for a cycle in isolation.
	AllowLookback bool `json:"allow_lookback,omitempty"`

	window types.TimeOfDayRange
}

// Window returns the compiled daily window. Valid only after Compile.
func (d *DemandCharge) Window() types.TimeOfDayRange {
	return d.window
}

// InWindow reports whether the local time falls in the configured window.
func (d *DemandCharge) InWindow(local time.Time) bool {
	if !d.Days.Contains(local.Weekday()) {
		return false
	}
	minute := types.MinuteOfDay(local.Hour()*60 + local.Minute())
	return d.window.Contains(minute)
}

// SpanDays returns the effective rolling span.
func (d *DemandCharge) SpanDays() int {
	if d.RollingSpanDays > 0 {
		return d.RollingSpanDays
	}
	return types.DefaultRollingSpanDays
}

// BillingPlan enumerates everything needed to segment and classify a
// series: timezone, cycle specification, TOU bands, and the optional
// demand charge. Rates live separately in TariffRates.
type BillingPlan struct {
	// Timezone is the local timezone for calendar math; empty falls back
	// to the engine default.
	Timezone string `json:"timezone,omitempty"`
	// Cycle selects monthly or custom segmentation.
	Cycle CycleKind `json:"cycle"`
	// Periods lists the explicit cycles when Cycle is custom.
	Periods []CyclePeriod `json:"periods,omitempty"`
	// TouBands is the ordered band list; empty means a single all-times band.
	TouBands []TouBand `json:"tou_bands,omitempty"`
	// Demand is the optional demand-charge configuration.
	Demand *DemandCharge `json:"demand,omitempty"`
}

// TariffRates is the rate structure applied to billables.
type TariffRates struct {
	// Currency sets the rounding precision; empty falls back to the
	// engine default.
	Currency string `json:"currency,omitempty"`
	// UsageRates maps TOU band label to the per-kWh rate. Must cover every
	// band label present in the billables.
	UsageRates map[string]decimal.Decimal `json:"usage_rates"`
	// ControlledLoadRate, when set, prices the controlled-load flow flat
	// instead of through the band rates.
	ControlledLoadRate *decimal.Decimal `json:"controlled_load_rate,omitempty"`
	// DemandRate is the per-kW-per-cycle rate; nil disables the demand charge.
	DemandRate *decimal.Decimal `json:"demand_rate,omitempty"`
	// DailyFixedRate is the per-calendar-day supply charge.
	DailyFixedRate decimal.Decimal `json:"daily_fixed_rate"`
	// FeedInRate credits exported energy per kWh; nil means no credit.
	FeedInRate *decimal.Decimal `json:"feed_in_rate,omitempty"`
	// DiscountFraction, when set, discounts a positive subtotal, e.g. 0.10
	// for a 10% pay-on-time discount.
	DiscountFraction *decimal.Decimal `json:"discount_fraction,omitempty"`
	// TaxEnabled applies TaxFraction to the taxable base.
	TaxEnabled bool `json:"tax_enabled,omitempty"`
	// TaxFraction is the tax rate, e.g. 0.10 for GST.
	TaxFraction decimal.Decimal `json:"tax_fraction,omitempty"`
}
