package types

import (
	"time"

	ierr "github.com/gridbill/gridbill/internal/errors"
)

// DaySet is a shorthand for a set of weekdays a tariff rule applies to.
type DaySet string

const (
	// DaySetAll applies on every day of the week.
	DaySetAll DaySet = "ALL"
	// DaySetWeekdays applies Monday through Friday.
	DaySetWeekdays DaySet = "MF"
	// DaySetMonSat applies Monday through Saturday.
	DaySetMonSat DaySet = "MS"
)

func (d DaySet) String() string {
	return string(d)
}

// Contains reports whether the given weekday is in the set. An empty
// DaySet behaves like DaySetAll.
func (d DaySet) Contains(wd time.Weekday) bool {
	switch d {
	case DaySetWeekdays:
		return wd >= time.Monday && wd <= time.Friday
	case DaySetMonSat:
		return wd != time.Sunday
	default:
		return true
	}
}

func (d DaySet) Validate() error {
	switch d {
	case DaySetAll, DaySetWeekdays, DaySetMonSat, "":
		return nil
	default:
		return ierr.NewErrorf("invalid day set: %s", d).
			WithHint("Day set must be one of ALL, MF, MS").
			Mark(ierr.ErrValidation)
	}
}
