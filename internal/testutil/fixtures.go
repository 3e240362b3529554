package testutil

import (
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/gridbill/gridbill/internal/domain/meter"
	"github.com/gridbill/gridbill/internal/domain/tariff"
	"github.com/gridbill/gridbill/internal/types"
)

// GoldenTolerance is the acceptance bound against reference bills: every
// expected itemized figure must match within ±0.02 currency units.
var GoldenTolerance = decimal.RequireFromString("0.02")

// FixtureSeries describes a synthetic constant-energy interval run.
type FixtureSeries struct {
	Flow       types.Flow `json:"flow"`
	Channel    string     `json:"channel"`
	Start      string     `json:"start"` // local "2006-01-02T15:04"
	Count      int        `json:"count"`
	CadenceMin int        `json:"cadence_min"`
	KWH        string     `json:"kwh"`
}

// ExpectedCycle is the itemized expectation for one cycle.
type ExpectedCycle struct {
	Cycle          string `json:"cycle"`
	UsageCharge    string `json:"usage_charge"`
	DemandCharge   string `json:"demand_charge"`
	FixedCharge    string `json:"fixed_charge"`
	FeedInCredit   string `json:"feed_in_credit"`
	DiscountAmount string `json:"discount_amount"`
	TaxAmount      string `json:"tax_amount"`
	Total          string `json:"total"`
}

// GoldenFixture pairs a period, a plan, a tariff, and expected itemized
// totals. It is the acceptance contract against real-world bills.
type GoldenFixture struct {
	Name     string              `json:"name"`
	NMI      string              `json:"nmi"`
	Timezone string              `json:"timezone"`
	Series   []FixtureSeries     `json:"series"`
	Plan     *tariff.BillingPlan `json:"plan"`
	Rates    *tariff.TariffRates `json:"rates"`
	Expected []ExpectedCycle     `json:"expected"`
}

var fixtureJSON = jsoniter.Config{DisallowUnknownFields: true, UseNumber: true}.Froze()

// LoadGoldenFixture reads and decodes a golden fixture document. Unknown
// keys are rejected so expectation documents cannot silently drift.
func LoadGoldenFixture(path string) (*GoldenFixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f GoldenFixture
	if err := fixtureJSON.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// BuildSeries materializes the fixture's synthetic interval series.
func (f *GoldenFixture) BuildSeries() (*meter.Series, error) {
	loc, err := types.LoadTimezone(f.Timezone)
	if err != nil {
		return nil, err
	}
	b := NewSeriesBuilder(f.NMI, loc)
	for _, part := range f.Series {
		start, err := time.ParseInLocation("2006-01-02T15:04", part.Start, loc)
		if err != nil {
			return nil, err
		}
		kwh, err := decimal.NewFromString(part.KWH)
		if err != nil {
			return nil, err
		}
		b.AddFlat(part.Flow, part.Channel, start, part.Count, part.CadenceMin, kwh)
	}
	return b.Build(), nil
}

// WithinGoldenTolerance reports whether got matches the expected decimal
// string within the acceptance bound.
func WithinGoldenTolerance(expected string, got decimal.Decimal) bool {
	want, err := decimal.NewFromString(expected)
	if err != nil {
		return false
	}
	return got.Sub(want).Abs().LessThanOrEqual(GoldenTolerance)
}
