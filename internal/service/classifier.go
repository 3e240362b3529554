package service

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/gridbill/gridbill/internal/domain/billing"
	"github.com/gridbill/gridbill/internal/domain/tariff"
	ierr "github.com/gridbill/gridbill/internal/errors"
)

// DefaultBandName labels the synthesized all-times band used when a plan
// configures no TOU bands.
const DefaultBandName = "anytime"

// TouClassifier assigns each interval of a cycle to a TOU band. Band-list
// completeness is checked at construction so evaluation cannot fail on a
// well-formed series.
type TouClassifier interface {
	Classify(ctx context.Context, cycle billing.BillingCycle) ([]billing.ClassifiedInterval, error)
	// Bands returns the compiled band list in evaluation order.
	Bands() []tariff.TouBand
}

type touClassifier struct {
	ServiceParams
	bands    []tariff.TouBand
	loc      *time.Location
	allTimes bool
}

// NewTouClassifier compiles and validates the ordered band list. An empty
// list becomes a single all-times band. The list must contain exactly one
// catch-all band: none leaves times unmatched, more than one leaves dead
// rules after the first.
func NewTouClassifier(params ServiceParams, bands []tariff.TouBand, loc *time.Location) (TouClassifier, error) {
	if len(bands) == 0 {
		bands = []tariff.TouBand{{Name: DefaultBandName, Start: "00:00", End: "24:00"}}
	}

	// Compile a private copy; the caller's plan is never mutated.
	compiled := make([]tariff.TouBand, len(bands))
	copy(compiled, bands)
	for i := range compiled {
		if err := compiled[i].Compile(); err != nil {
			return nil, err
		}
	}

	catchAlls := lo.CountBy(compiled, func(b tariff.TouBand) bool { return b.IsCatchAll() })
	if catchAlls == 0 {
		return nil, ierr.NewError("tou band list lacks a catch-all band").
			WithHint("Add a final band covering all days and all hours so every interval matches").
			WithReportableDetails(map[string]interface{}{
				"bands": lo.Map(compiled, func(b tariff.TouBand, _ int) string { return b.Name }),
			}).
			Mark(ierr.ErrClassification)
	}
	if catchAlls > 1 {
		return nil, ierr.NewErrorf("tou band list has %d catch-all bands", catchAlls).
			WithHint("Only one band may cover all days and all hours; later ones are unreachable").
			Mark(ierr.ErrClassification)
	}

	return &touClassifier{
		ServiceParams: params.withDefaults(),
		bands:         compiled,
		loc:           loc,
		allTimes:      len(compiled) == 1,
	}, nil
}

func (c *touClassifier) Bands() []tariff.TouBand {
	return c.bands
}

func (c *touClassifier) Classify(ctx context.Context, cycle billing.BillingCycle) ([]billing.ClassifiedInterval, error) {
	out := make([]billing.ClassifiedInterval, 0, len(cycle.Intervals))

	// Single all-times band: label without per-interval evaluation.
	if c.allTimes {
		label := c.bands[0].Name
		for _, r := range cycle.Intervals {
			out = append(out, billing.ClassifiedInterval{IntervalRecord: r, Band: label})
		}
		return out, nil
	}

	for _, r := range cycle.Intervals {
		local := r.Local(c.loc)
		matched := false
		for i := range c.bands {
			if c.bands[i].Matches(local) {
				out = append(out, billing.ClassifiedInterval{IntervalRecord: r, Band: c.bands[i].Name})
				matched = true
				break
			}
		}
		if !matched {
			// Unreachable with a catch-all present; kept as a guard.
			return nil, ierr.NewErrorf("no tou band matches interval at %s", local).
				WithReportableDetails(map[string]interface{}{
					"timestamp": local,
					"cycle":     cycle.Label,
				}).
				Mark(ierr.ErrClassification)
		}
	}
	return out, nil
}
