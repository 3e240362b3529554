package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gridbill/gridbill/internal/domain/billing"
	"github.com/gridbill/gridbill/internal/domain/tariff"
	"github.com/gridbill/gridbill/internal/types"
)

// DemandSample is one windowed power reading used as rolling lookback
// context between adjacent cycles.
type DemandSample struct {
	Local time.Time
	KW    decimal.Decimal
}

// DemandWindowCalculator derives the demand-charge input value for a
// cycle from its windowed power samples. With a nil config the value is
// nil and no demand charge applies.
//
// Rolling averages are computed from in-cycle samples only unless the
// config opts into lookback; then the samples returned from the previous
// cycle's computation seed the rolling window. This keeps each cycle's
// computation pure given its explicit local context.
type DemandWindowCalculator interface {
	Compute(ctx context.Context, cycle billing.BillingCycle, cfg *tariff.DemandCharge, lookback []DemandSample) (*decimal.Decimal, []DemandSample, error)
}

type demandWindowCalculator struct {
	ServiceParams
	loc *time.Location
}

// NewDemandWindowCalculator creates a calculator evaluating windows in
// the given local timezone.
func NewDemandWindowCalculator(params ServiceParams, loc *time.Location) DemandWindowCalculator {
	return &demandWindowCalculator{ServiceParams: params.withDefaults(), loc: loc}
}

func (d *demandWindowCalculator) Compute(ctx context.Context, cycle billing.BillingCycle, cfg *tariff.DemandCharge, lookback []DemandSample) (*decimal.Decimal, []DemandSample, error) {
	if cfg == nil {
		return nil, nil, nil
	}

	samples := d.windowedSamples(cycle, cfg)

	// The effective span is resolved once and governs both the rolling
	// windows and the lookback buffer handed to the next cycle.
	span := cfg.SpanDays()
	if cfg.RollingSpanDays == 0 && d.Config.Billing.RollingSpanDays > 0 {
		span = d.Config.Billing.RollingSpanDays
	}

	var value decimal.Decimal
	switch cfg.Method {
	case types.DemandMethodRollingAvg:
		combined := samples
		if cfg.AllowLookback && len(lookback) > 0 {
			combined = append(append([]DemandSample{}, lookback...), samples...)
		}
		value = maxRollingMean(combined, len(combined)-len(samples), span)
	default: // peak
		value = peakKW(samples)
	}

	var nextLookback []DemandSample
	if cfg.AllowLookback {
		nextLookback = trailingSpan(samples, cycle.End.In(d.loc), span)
	}

	return &value, nextLookback, nil
}

// windowedSamples converts the cycle's grid-import intervals inside the
// configured window to kW, ordered by local time.
func (d *demandWindowCalculator) windowedSamples(cycle billing.BillingCycle, cfg *tariff.DemandCharge) []DemandSample {
	samples := make([]DemandSample, 0, len(cycle.Intervals))
	for _, r := range cycle.Intervals {
		if r.Flow != types.FlowGridImport {
			continue
		}
		local := r.Local(d.loc)
		if !cfg.InWindow(local) {
			continue
		}
		samples = append(samples, DemandSample{Local: local, KW: r.KW()})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Local.Before(samples[j].Local) })
	return samples
}

// peakKW returns the highest sample, zero for an empty window.
func peakKW(samples []DemandSample) decimal.Decimal {
	max := decimal.Zero
	for _, s := range samples {
		if s.KW.GreaterThan(max) {
			max = s.KW
		}
	}
	return max
}

// maxRollingMean computes, for each sample from firstOwn onward, the mean
// of all samples within spanDays ending at that sample, and returns the
// maximum of those means. Samples before firstOwn only ever seed windows,
// so a lookback buffer cannot itself produce the cycle's demand value.
func maxRollingMean(samples []DemandSample, firstOwn int, spanDays int) decimal.Decimal {
	if firstOwn < 0 {
		firstOwn = 0
	}
	max := decimal.Zero
	oldest := 0
	sum := decimal.Zero
	for i, s := range samples {
		sum = sum.Add(s.KW)
		cutoff := s.Local.AddDate(0, 0, -spanDays)
		for oldest <= i && !samples[oldest].Local.After(cutoff) {
			sum = sum.Sub(samples[oldest].KW)
			oldest++
		}
		if i < firstOwn {
			continue
		}
		mean := sum.Div(decimal.NewFromInt(int64(i - oldest + 1)))
		if mean.GreaterThan(max) {
			max = mean
		}
	}
	return max
}

// trailingSpan returns the samples within spanDays of the cycle end, the
// lookback context handed to the next cycle.
func trailingSpan(samples []DemandSample, end time.Time, spanDays int) []DemandSample {
	cutoff := end.AddDate(0, 0, -spanDays)
	idx := sort.Search(len(samples), func(i int) bool {
		return samples[i].Local.After(cutoff)
	})
	if idx >= len(samples) {
		return nil
	}
	out := make([]DemandSample, len(samples)-idx)
	copy(out, samples[idx:])
	return out
}
