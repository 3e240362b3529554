package types

import (
	ierr "github.com/gridbill/gridbill/internal/errors"
)

// DemandMethod selects how the demand-charge input for a cycle is derived
// from windowed power samples.
type DemandMethod string

const (
	// DemandMethodPeak takes the single highest kW sample in the window.
	DemandMethodPeak DemandMethod = "peak"
	// DemandMethodRollingAvg takes the maximum of a rolling mean of windowed
	// kW samples over a configured span of days.
	DemandMethodRollingAvg DemandMethod = "rolling_avg"
)

func (m DemandMethod) String() string {
	return string(m)
}

func (m DemandMethod) Validate() error {
	switch m {
	case DemandMethodPeak, DemandMethodRollingAvg:
		return nil
	default:
		return ierr.NewErrorf("invalid demand method: %s", m).
			WithHint("Demand method must be one of peak, rolling_avg").
			Mark(ierr.ErrValidation)
	}
}

// DefaultRollingSpanDays is the rolling-average span used when the demand
// config does not set one.
const DefaultRollingSpanDays = 30
