package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/gridbill/gridbill/internal/domain/meter"
	"github.com/gridbill/gridbill/internal/domain/tariff"
	ierr "github.com/gridbill/gridbill/internal/errors"
	"github.com/gridbill/gridbill/internal/testutil"
	"github.com/gridbill/gridbill/internal/types"
)

type CycleSegmenterSuite struct {
	testutil.BaseServiceTestSuite
	segmenter CycleSegmenter
	loc       *time.Location
}

func TestCycleSegmenterSuite(t *testing.T) {
	suite.Run(t, new(CycleSegmenterSuite))
}

func (s *CycleSegmenterSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.segmenter = NewCycleSegmenter(ServiceParams{
		Logger: s.GetLogger(),
		Config: s.GetConfig(),
	})
	s.loc, _ = time.LoadLocation("Australia/Brisbane")
}

func (s *CycleSegmenterSuite) TestMonthlyAlignedToFirstDayPresent() {
	start := time.Date(2025, 6, 10, 0, 0, 0, 0, s.loc)
	series := testutil.FlatDailySeries("6305112233", s.loc, start, 60, 30, decimal.RequireFromString("0.5"))

	result, err := s.segmenter.Segment(s.GetContext(), series, &tariff.BillingPlan{Cycle: tariff.CycleKindMonthly})
	s.NoError(err)
	s.Len(result.Cycles, 3)
	s.Equal("2025-06", result.Cycles[0].Label)
	s.Equal("2025-07", result.Cycles[1].Label)
	s.Equal("2025-08", result.Cycles[2].Label)

	// First cycle starts on the first day present, not the 1st of June.
	s.True(result.Cycles[0].Start.Equal(start))
	s.True(result.Cycles[0].End.Equal(time.Date(2025, 7, 1, 0, 0, 0, 0, s.loc)))
	s.True(result.Cycles[1].End.Equal(time.Date(2025, 8, 1, 0, 0, 0, 0, s.loc)))
	s.Zero(result.Uncovered)

	total := 0
	for _, c := range result.Cycles {
		total += len(c.Intervals)
	}
	s.Equal(len(series.Intervals), total)
}

func (s *CycleSegmenterSuite) TestExplicitEndDateIsInclusive() {
	// Last interval of January sits at 23:30 on the requested end date;
	// the first interval of February starts exactly at the boundary.
	series := testutil.NewSeriesBuilder("6305112233", s.loc).
		Add(types.FlowGridImport, "E1", time.Date(2025, 1, 31, 23, 30, 0, 0, s.loc), 30, decimal.RequireFromString("0.5")).
		Add(types.FlowGridImport, "E1", time.Date(2025, 2, 1, 0, 0, 0, 0, s.loc), 30, decimal.RequireFromString("0.5")).
		Build()

	plan := &tariff.BillingPlan{
		Cycle:   tariff.CycleKindCustom,
		Periods: []tariff.CyclePeriod{{Start: "2025-01-01", End: "2025-01-31"}},
	}
	result, err := s.segmenter.Segment(s.GetContext(), series, plan)
	s.NoError(err)
	s.Len(result.Cycles, 1)
	s.Equal("2025-01-01→2025-01-31", result.Cycles[0].Label)
	s.Len(result.Cycles[0].Intervals, 1)
	s.Equal(1, result.Uncovered)
	s.Equal(31, result.Cycles[0].DayCount())
}

func (s *CycleSegmenterSuite) TestNonContiguousCyclesRejected() {
	series := testutil.FlatDailySeries("6305112233", s.loc,
		time.Date(2025, 1, 1, 0, 0, 0, 0, s.loc), 5, 30, decimal.RequireFromString("0.5"))

	plan := &tariff.BillingPlan{
		Cycle: tariff.CycleKindCustom,
		Periods: []tariff.CyclePeriod{
			{Start: "2025-01-01", End: "2025-01-31"},
			{Start: "2025-02-02", End: "2025-02-28"}, // gap on Feb 1
		},
	}
	_, err := s.segmenter.Segment(s.GetContext(), series, plan)
	s.Error(err)
	s.True(ierr.IsCycleConfig(err))
}

func (s *CycleSegmenterSuite) TestInvertedCycleBoundsRejected() {
	series := testutil.FlatDailySeries("6305112233", s.loc,
		time.Date(2025, 1, 1, 0, 0, 0, 0, s.loc), 5, 30, decimal.RequireFromString("0.5"))

	plan := &tariff.BillingPlan{
		Cycle:   tariff.CycleKindCustom,
		Periods: []tariff.CyclePeriod{{Start: "2025-01-31", End: "2025-01-01"}},
	}
	_, err := s.segmenter.Segment(s.GetContext(), series, plan)
	s.Error(err)
	s.True(ierr.IsCycleConfig(err))
}

func (s *CycleSegmenterSuite) TestDSTTransitionMonthCountsCalendarDays() {
	// Sydney enters DST on 2025-10-05; October is still 31 calendar days.
	sydney, err := time.LoadLocation("Australia/Sydney")
	s.Require().NoError(err)

	series := testutil.FlatDailySeries("4102334455", sydney,
		time.Date(2025, 10, 1, 0, 0, 0, 0, sydney), 31, 30, decimal.RequireFromString("0.5"))

	plan := &tariff.BillingPlan{
		Timezone: "Australia/Sydney",
		Cycle:    tariff.CycleKindCustom,
		Periods:  []tariff.CyclePeriod{{Start: "2025-10-01", End: "2025-10-31"}},
	}
	result, err := s.segmenter.Segment(s.GetContext(), series, plan)
	s.NoError(err)
	s.Len(result.Cycles, 1)
	s.Equal(31, result.Cycles[0].DayCount())
}

func (s *CycleSegmenterSuite) TestEmptySeriesRejected() {
	_, err := s.segmenter.Segment(s.GetContext(), &meter.Series{NMI: "6305112233", Timezone: s.loc}, &tariff.BillingPlan{Cycle: tariff.CycleKindMonthly})
	s.Error(err)
	s.True(ierr.IsSchema(err))
}

func (s *CycleSegmenterSuite) TestPlanTimezoneOverridesSeries() {
	// 14:30 UTC on Jun 30 is 00:30 Jul 1 in Brisbane, so the plan
	// timezone decides which month the interval lands in.
	series := testutil.NewSeriesBuilder("6305112233", time.UTC).
		Add(types.FlowGridImport, "E1", time.Date(2025, 6, 30, 14, 30, 0, 0, time.UTC), 30, decimal.RequireFromString("0.5")).
		Build()

	plan := &tariff.BillingPlan{Timezone: "Australia/Brisbane", Cycle: tariff.CycleKindMonthly}
	result, err := s.segmenter.Segment(s.GetContext(), series, plan)
	s.NoError(err)
	s.Len(result.Cycles, 1)
	s.Equal("2025-07", result.Cycles[0].Label)
}
