package types

import (
	"strings"
	"time"

	ierr "github.com/gridbill/gridbill/internal/errors"
)

// timezoneAbbreviationMap maps common timezone abbreviations seen in tariff
// documents to IANA identifiers. Australian market zones first: interval
// metering data is keyed to the local calendar, so DST-aware zones matter
// for day counts.
var timezoneAbbreviationMap = map[string]string{
	// Australia / New Zealand
	"AEST": "Australia/Brisbane", // Eastern Standard (no DST)
	"AEDT": "Australia/Sydney",   // Eastern with DST
	"ACST": "Australia/Darwin",   // Central Standard
	"ACDT": "Australia/Adelaide", // Central with DST
	"AWST": "Australia/Perth",    // Western
	"NZST": "Pacific/Auckland",   // New Zealand

	// Common elsewhere
	"GMT": "Europe/London",
	"BST": "Europe/London",
	"CET": "Europe/Berlin",
	"EST": "America/New_York",
	"CST": "America/Chicago",
	"MST": "America/Denver",
	"PST": "America/Los_Angeles",
	"IST": "Asia/Kolkata",
	"JST": "Asia/Tokyo",
}

// ResolveTimezone converts a known abbreviation to its IANA identifier, or
// returns the input unchanged (it may already be an IANA name).
func ResolveTimezone(timezone string) string {
	if iana, ok := timezoneAbbreviationMap[strings.ToUpper(timezone)]; ok {
		return iana
	}
	return timezone
}

// LoadTimezone resolves and loads a timezone, surfacing a validation error
// with the offending name if it is unknown.
func LoadTimezone(timezone string) (*time.Location, error) {
	loc, err := time.LoadLocation(ResolveTimezone(timezone))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Unknown timezone %q; use an IANA name such as Australia/Brisbane", timezone).
			Mark(ierr.ErrValidation)
	}
	return loc, nil
}

// ValidateTimezone checks that a timezone resolves to a loadable location.
func ValidateTimezone(timezone string) error {
	_, err := LoadTimezone(timezone)
	return err
}
