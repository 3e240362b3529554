package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gridbill/gridbill/internal/domain/billing"
	"github.com/gridbill/gridbill/internal/domain/meter"
	"github.com/gridbill/gridbill/internal/domain/tariff"
	ierr "github.com/gridbill/gridbill/internal/errors"
	"github.com/gridbill/gridbill/internal/types"
)

// CycleSegmenter splits an interval series into ordered, non-overlapping
// billing cycles.
type CycleSegmenter interface {
	Segment(ctx context.Context, series *meter.Series, plan *tariff.BillingPlan) (*billing.SegmentResult, error)
}

type cycleSegmenter struct {
	ServiceParams
}

// NewCycleSegmenter creates a new cycle segmenter.
func NewCycleSegmenter(params ServiceParams) CycleSegmenter {
	return &cycleSegmenter{ServiceParams: params.withDefaults()}
}

func (s *cycleSegmenter) Segment(ctx context.Context, series *meter.Series, plan *tariff.BillingPlan) (*billing.SegmentResult, error) {
	if series == nil || len(series.Intervals) == 0 {
		return nil, ierr.NewError("cannot segment an empty interval series").
			Mark(ierr.ErrSchema)
	}

	loc, err := s.location(series, plan)
	if err != nil {
		return nil, err
	}

	var cycles []billing.BillingCycle
	switch plan.Cycle {
	case tariff.CycleKindMonthly:
		cycles = monthlyCycles(series, loc)
	case tariff.CycleKindCustom:
		cycles, err = explicitCycles(plan.Periods, loc)
		if err != nil {
			return nil, err
		}
	default:
		return nil, ierr.NewErrorf("invalid cycle kind: %s", plan.Cycle).
			Mark(ierr.ErrCycleConfig)
	}

	uncovered := sliceIntervals(series, cycles, loc)

	s.Logger.Debugw("segmented interval series",
		"nmi", series.NMI,
		"cycles", len(cycles),
		"uncovered", uncovered,
	)

	return &billing.SegmentResult{Cycles: cycles, Uncovered: uncovered}, nil
}

func (s *cycleSegmenter) location(series *meter.Series, plan *tariff.BillingPlan) (*time.Location, error) {
	if plan.Timezone != "" {
		return types.LoadTimezone(plan.Timezone)
	}
	if series.Timezone != nil {
		return series.Timezone, nil
	}
	return types.LoadTimezone(s.Config.Billing.Timezone)
}

// monthlyCycles builds calendar-month cycles: the first starts on the
// first day present in the series, later boundaries fall on the 1st of
// each month, and the final cycle may be partial.
func monthlyCycles(series *meter.Series, loc *time.Location) []billing.BillingCycle {
	first, last := seriesBounds(series, loc)

	y, m, d := first.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)

	var cycles []billing.BillingCycle
	for !start.After(last) {
		sy, sm, _ := start.Date()
		end := time.Date(sy, sm, 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
		cycles = append(cycles, billing.BillingCycle{
			Label: start.Format("2006-01"),
			Start: start,
			End:   end,
		})
		start = end
	}
	return cycles
}

// explicitCycles converts an ordered list of inclusive calendar-date
// pairs into half-open cycles and enforces contiguity.
func explicitCycles(periods []tariff.CyclePeriod, loc *time.Location) ([]billing.BillingCycle, error) {
	if len(periods) == 0 {
		return nil, ierr.NewError("cycle list is empty").
			Mark(ierr.ErrCycleConfig)
	}

	cycles := make([]billing.BillingCycle, 0, len(periods))
	for _, p := range periods {
		start, err := parseCycleDate(p.Start, loc)
		if err != nil {
			return nil, err
		}
		endDate, err := parseCycleDate(p.End, loc)
		if err != nil {
			return nil, err
		}
		// The requested end date is inclusive; the cycle boundary is the
		// midnight after it.
		end := endDate.AddDate(0, 0, 1)
		if !end.After(start) {
			return nil, ierr.NewErrorf("cycle end %s precedes start %s", p.End, p.Start).
				WithHint("Cycle bounds are inverted").
				Mark(ierr.ErrCycleConfig)
		}
		cycles = append(cycles, billing.BillingCycle{
			Label: fmt.Sprintf("%s→%s", p.Start, p.End),
			Start: start,
			End:   end,
		})
	}

	for i := 1; i < len(cycles); i++ {
		if !cycles[i].Start.Equal(cycles[i-1].End) {
			return nil, ierr.NewErrorf("cycles %s and %s are not contiguous", cycles[i-1].Label, cycles[i].Label).
				WithHint("The end of each cycle must equal the start of the next").
				WithReportableDetails(map[string]interface{}{
					"previous_end": cycles[i-1].End,
					"next_start":   cycles[i].Start,
				}).
				Mark(ierr.ErrCycleConfig)
		}
	}
	return cycles, nil
}

func parseCycleDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHintf("Cycle date %q must be in YYYY-MM-DD format", s).
			Mark(ierr.ErrCycleConfig)
	}
	return t, nil
}

// sliceIntervals assigns each interval to the cycle containing it and
// returns the count falling outside every cycle.
func sliceIntervals(series *meter.Series, cycles []billing.BillingCycle, loc *time.Location) int {
	uncovered := 0
	for _, r := range series.Intervals {
		t := r.Timestamp.In(loc)
		// Last cycle whose start is not after t.
		idx := sort.Search(len(cycles), func(i int) bool {
			return cycles[i].Start.After(t)
		}) - 1
		if idx < 0 || !t.Before(cycles[idx].End) {
			uncovered++
			continue
		}
		cycles[idx].Intervals = append(cycles[idx].Intervals, r)
	}
	return uncovered
}

func seriesBounds(series *meter.Series, loc *time.Location) (first, last time.Time) {
	first = series.Intervals[0].Timestamp.In(loc)
	last = first
	for _, r := range series.Intervals[1:] {
		t := r.Timestamp.In(loc)
		if t.Before(first) {
			first = t
		}
		if t.After(last) {
			last = t
		}
	}
	return first, last
}
