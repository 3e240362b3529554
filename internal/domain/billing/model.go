// Package billing holds the record shapes produced by the billing
// pipeline: cycles, billables, and cost breakdowns. Every record is
// created fresh per invocation and never mutated after construction.
package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gridbill/gridbill/internal/domain/meter"
	"github.com/gridbill/gridbill/internal/types"
)

// BillingCycle is one half-open [Start, End) period in the series'
// timezone, carrying the slice of the input series that falls within it.
type BillingCycle struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	// Intervals is the input subset within [Start, End), in input order.
	Intervals []meter.IntervalRecord `json:"-"`
}

// DayCount returns the number of local calendar dates spanned by
// [Start, End). A DST-shortened or -lengthened day still counts as one:
// days are calendar dates, not 24-hour multiples.
func (c *BillingCycle) DayCount() int {
	return daysBetween(c.Start, c.End)
}

// daysBetween counts calendar dates covered by the half-open range
// [start, end) in start's location. Date arithmetic is done on the civil
// dates so DST transitions cannot skew the count.
func daysBetween(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	loc := start.Location()
	local := end.In(loc)
	endDate := civilDays(local.Date())
	// An end mid-day includes that date; an end at midnight excludes it.
	if !isMidnight(local) {
		endDate++
	}
	return endDate - civilDays(start.In(loc).Date())
}

// civilDays maps a civil date to a day ordinal, independent of timezone.
func civilDays(year int, month time.Month, day int) int {
	return int(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// SegmentResult is the segmenter's output: ordered cycles plus the count
// of input intervals falling outside every cycle boundary (non-fatal).
type SegmentResult struct {
	Cycles    []BillingCycle `json:"cycles"`
	Uncovered int            `json:"uncovered"`
}

// ClassifiedInterval is an interval annotated with its TOU band label.
type ClassifiedInterval struct {
	meter.IntervalRecord
	Band string `json:"band"`
}

// Billable is the per-cycle table of billable quantities.
type Billable struct {
	CycleLabel string    `json:"cycle"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	DayCount   int       `json:"day_count"`
	// Usage maps flow -> band label -> summed kWh. The per-band sums for a
	// flow always equal the flow's unfiltered total: classification drops
	// and double-counts nothing.
	Usage map[types.Flow]map[string]decimal.Decimal `json:"usage"`
	// DemandKW is the demand-charge input; nil when no demand is configured.
	DemandKW *decimal.Decimal `json:"demand_kw,omitempty"`
	// ExportKWH is the total export-flow energy in the cycle.
	ExportKWH decimal.Decimal `json:"export_kwh"`
}

// UsageFor returns the summed kWh for a (flow, band) pair, zero if absent.
func (b *Billable) UsageFor(flow types.Flow, band string) decimal.Decimal {
	if bands, ok := b.Usage[flow]; ok {
		if kwh, ok := bands[band]; ok {
			return kwh
		}
	}
	return decimal.Zero
}

// FlowTotal returns the summed kWh across all bands of a flow.
func (b *Billable) FlowTotal(flow types.Flow) decimal.Decimal {
	total := decimal.Zero
	for _, kwh := range b.Usage[flow] {
		total = total.Add(kwh)
	}
	return total
}

// BandLabels returns the set of band labels present for import flows.
func (b *Billable) BandLabels() map[string]bool {
	labels := make(map[string]bool)
	for flow, bands := range b.Usage {
		if !flow.IsImport() {
			continue
		}
		for band := range bands {
			labels[band] = true
		}
	}
	return labels
}

// CostBreakdown is the itemized, currency-rounded cost record for one
// cycle. Each field is rounded independently from its full-precision
// value; the total is not a sum of the pre-rounded fields.
type CostBreakdown struct {
	ID             string          `json:"id"`
	CycleLabel     string          `json:"cycle"`
	Currency       string          `json:"currency"`
	UsageCharge    decimal.Decimal `json:"usage_charge"`
	DemandCharge   decimal.Decimal `json:"demand_charge"`
	FixedCharge    decimal.Decimal `json:"fixed_charge"`
	FeedInCredit   decimal.Decimal `json:"feed_in_credit"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

// BillRun pairs the billables with their breakdowns for one invocation,
// aligned 1:1 by cycle label.
type BillRun struct {
	ID         string           `json:"id"`
	NMI        string           `json:"nmi"`
	Uncovered  int              `json:"uncovered"`
	Billables  []*Billable      `json:"billables"`
	Breakdowns []*CostBreakdown `json:"breakdowns"`
}

// CycleDelta is the per-cycle total difference between two tariffs.
type CycleDelta struct {
	CycleLabel string          `json:"cycle"`
	BaseTotal  decimal.Decimal `json:"base_total"`
	OtherTotal decimal.Decimal `json:"other_total"`
	Delta      decimal.Decimal `json:"delta"`
}

// TariffComparison is the outcome of pricing one series under two rate
// structures, e.g. the current plan against a candidate.
type TariffComparison struct {
	Base   *BillRun     `json:"base"`
	Other  *BillRun     `json:"other"`
	Deltas []CycleDelta `json:"deltas"`
	// TotalDelta is other minus base across all cycles; negative means
	// the other tariff is cheaper.
	TotalDelta decimal.Decimal `json:"total_delta"`
}
