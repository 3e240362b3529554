// Package meter holds the canonical interval-series model the billing
// engine consumes. Producing the series (parsing, normalization, gap
// handling) happens upstream; this package only models it and enforces
// the canonical invariants.
package meter

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gridbill/gridbill/internal/types"
)

// DefaultCadenceMin is assumed when a cadence cannot be inferred.
const DefaultCadenceMin = 30

// IntervalRecord is one energy reading: the energy delivered on one
// channel during [Timestamp, Timestamp+CadenceMin). Records are owned by
// the caller and read-only to the engine.
type IntervalRecord struct {
	// Timestamp is the interval start, tz-aware.
	Timestamp time.Time `json:"timestamp"`
	// NMI identifies the metering point.
	NMI string `json:"nmi"`
	// Channel is the register label, e.g. "E1", "B1".
	Channel string `json:"channel"`
	// Flow classifies the energy direction.
	Flow types.Flow `json:"flow"`
	// KWH is the non-negative energy for the interval.
	KWH decimal.Decimal `json:"kwh"`
	// CadenceMin is the interval length in minutes.
	CadenceMin int `json:"cadence_min"`
}

// KW converts the interval's energy to average power over the interval.
func (r IntervalRecord) KW() decimal.Decimal {
	if r.CadenceMin <= 0 {
		return decimal.Zero
	}
	return r.KWH.Mul(decimal.NewFromInt(60)).Div(decimal.NewFromInt(int64(r.CadenceMin)))
}

// Local returns the interval start in the given location.
func (r IntervalRecord) Local(loc *time.Location) time.Time {
	return r.Timestamp.In(loc)
}

// Series is the validated, time-ordered reading series for one metering
// point. It may carry several channels (import and export registers);
// within each channel timestamps are strictly increasing with one cadence.
type Series struct {
	NMI       string           `json:"nmi"`
	Timezone  *time.Location   `json:"-"`
	Intervals []IntervalRecord `json:"intervals"`
}

// InferCadenceMinutes returns the modal positive gap between consecutive
// timestamps on a single channel, in whole minutes. Falls back to the
// default when fewer than two samples exist.
func InferCadenceMinutes(timestamps []time.Time) int {
	if len(timestamps) < 2 {
		return DefaultCadenceMin
	}
	counts := make(map[int]int)
	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		minutes := int((gap + time.Second*30) / time.Minute)
		if minutes > 0 {
			counts[minutes]++
		}
	}
	if len(counts) == 0 {
		return DefaultCadenceMin
	}
	best, bestCount := DefaultCadenceMin, 0
	for minutes, count := range counts {
		if count > bestCount || (count == bestCount && minutes < best) {
			best, bestCount = minutes, count
		}
	}
	return best
}
