package meter

import (
	"time"

	ierr "github.com/gridbill/gridbill/internal/errors"
)

// Validate enforces the canonical series invariants the engine assumes:
// a timezone, one metering point, and per-channel sortedness, uniqueness,
// and a single cadence. Violations are schema errors; the engine fails
// fast rather than billing an invalid series.
func (s *Series) Validate() error {
	if s == nil || len(s.Intervals) == 0 {
		return ierr.NewError("interval series is empty").
			WithHint("The billing engine requires a non-empty validated series").
			Mark(ierr.ErrSchema)
	}
	if s.Timezone == nil {
		return ierr.NewError("series timezone is not set").
			WithHint("Interval series must be tz-aware").
			Mark(ierr.ErrSchema)
	}

	type channelState struct {
		last    IntervalRecord
		cadence int
		stamps  []time.Time
	}
	channels := make(map[string]*channelState)

	for i, r := range s.Intervals {
		if r.Timestamp.IsZero() {
			return ierr.NewErrorf("interval %d has a zero timestamp", i).
				Mark(ierr.ErrSchema)
		}
		if r.NMI != s.NMI {
			return ierr.NewErrorf("interval %d belongs to NMI %s, series is %s", i, r.NMI, s.NMI).
				WithHint("The engine operates on one metering point per call").
				Mark(ierr.ErrSchema)
		}
		if err := r.Flow.Validate(); err != nil {
			return ierr.WithError(err).
				WithReportableDetails(map[string]interface{}{
					"timestamp": r.Timestamp,
					"channel":   r.Channel,
				}).
				Mark(ierr.ErrSchema)
		}
		if r.KWH.IsNegative() {
			return ierr.NewErrorf("negative energy %s at %s", r.KWH, r.Timestamp).
				WithHint("Interval energy must be non-negative; exports are a separate flow").
				Mark(ierr.ErrSchema)
		}
		if r.CadenceMin <= 0 {
			return ierr.NewErrorf("non-positive cadence %d at %s", r.CadenceMin, r.Timestamp).
				Mark(ierr.ErrSchema)
		}

		state, seen := channels[r.Channel]
		if !seen {
			channels[r.Channel] = &channelState{last: r, cadence: r.CadenceMin, stamps: []time.Time{r.Timestamp}}
			continue
		}
		if !r.Timestamp.After(state.last.Timestamp) {
			return ierr.NewErrorf("channel %s is not strictly increasing at %s", r.Channel, r.Timestamp).
				WithHint("Intervals per channel must be sorted with unique timestamps").
				WithReportableDetails(map[string]interface{}{
					"channel":   r.Channel,
					"timestamp": r.Timestamp,
				}).
				Mark(ierr.ErrSchema)
		}
		if r.CadenceMin != state.cadence {
			return ierr.NewErrorf("channel %s mixes cadences %d and %d", r.Channel, state.cadence, r.CadenceMin).
				WithHint("All intervals on a channel must share one interval length").
				Mark(ierr.ErrSchema)
		}
		state.last = r
		state.stamps = append(state.stamps, r.Timestamp)
	}

	// Cross-check each channel's declared cadence against the dominant
	// timestamp step. A data gap changes one step, not the mode, so
	// gappy-but-honest series still pass.
	for channel, state := range channels {
		if len(state.stamps) < 2 {
			continue
		}
		if inferred := InferCadenceMinutes(state.stamps); inferred != state.cadence {
			return ierr.NewErrorf("channel %s declares a %d minute cadence but readings step by %d", channel, state.cadence, inferred).
				WithHint("Declared interval length must match the series' timestamp spacing").
				Mark(ierr.ErrSchema)
		}
	}
	return nil
}
