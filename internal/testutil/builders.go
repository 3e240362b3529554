package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gridbill/gridbill/internal/domain/meter"
	"github.com/gridbill/gridbill/internal/types"
)

// SeriesBuilder assembles deterministic interval series for tests.
type SeriesBuilder struct {
	nmi       string
	loc       *time.Location
	intervals []meter.IntervalRecord
}

// NewSeriesBuilder starts a series for one metering point.
func NewSeriesBuilder(nmi string, loc *time.Location) *SeriesBuilder {
	return &SeriesBuilder{nmi: nmi, loc: loc}
}

// AddFlat appends count intervals with constant energy on one channel,
// starting at start and stepping by the cadence.
func (b *SeriesBuilder) AddFlat(flow types.Flow, channel string, start time.Time, count int, cadenceMin int, kwh decimal.Decimal) *SeriesBuilder {
	step := time.Duration(cadenceMin) * time.Minute
	for i := 0; i < count; i++ {
		b.intervals = append(b.intervals, meter.IntervalRecord{
			Timestamp:  start.Add(time.Duration(i) * step),
			NMI:        b.nmi,
			Channel:    channel,
			Flow:       flow,
			KWH:        kwh,
			CadenceMin: cadenceMin,
		})
	}
	return b
}

// Add appends a single interval.
func (b *SeriesBuilder) Add(flow types.Flow, channel string, ts time.Time, cadenceMin int, kwh decimal.Decimal) *SeriesBuilder {
	b.intervals = append(b.intervals, meter.IntervalRecord{
		Timestamp:  ts,
		NMI:        b.nmi,
		Channel:    channel,
		Flow:       flow,
		KWH:        kwh,
		CadenceMin: cadenceMin,
	})
	return b
}

// Scale returns a copy of the builder with every interval's energy
// multiplied by k. The original builder is untouched.
func (b *SeriesBuilder) Scale(k decimal.Decimal) *SeriesBuilder {
	scaled := &SeriesBuilder{nmi: b.nmi, loc: b.loc, intervals: make([]meter.IntervalRecord, len(b.intervals))}
	for i, r := range b.intervals {
		r.KWH = r.KWH.Mul(k)
		scaled.intervals[i] = r
	}
	return scaled
}

// Build materializes the series.
func (b *SeriesBuilder) Build() *meter.Series {
	intervals := make([]meter.IntervalRecord, len(b.intervals))
	copy(intervals, b.intervals)
	return &meter.Series{NMI: b.nmi, Timezone: b.loc, Intervals: intervals}
}

// FlatDailySeries is the common fixture shape: count days of back-to-back
// grid-import intervals at constant energy, starting at local midnight.
func FlatDailySeries(nmi string, loc *time.Location, startDate time.Time, days int, cadenceMin int, kwh decimal.Decimal) *meter.Series {
	perDay := (24 * 60) / cadenceMin
	return NewSeriesBuilder(nmi, loc).
		AddFlat(types.FlowGridImport, "E1", startDate, days*perDay, cadenceMin, kwh).
		Build()
}
