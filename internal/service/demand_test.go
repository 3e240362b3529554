package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridbill/gridbill/internal/config"
	"github.com/gridbill/gridbill/internal/domain/billing"
	"github.com/gridbill/gridbill/internal/domain/meter"
	"github.com/gridbill/gridbill/internal/domain/tariff"
	"github.com/gridbill/gridbill/internal/types"
)

func demandConfig(t *testing.T, method types.DemandMethod) *tariff.DemandCharge {
	t.Helper()
	cfg := &tariff.DemandCharge{Start: "15:00", End: "21:00", Method: method}
	require.NoError(t, cfg.Compile())
	return cfg
}

func TestDemandNilConfigYieldsNoValue(t *testing.T) {
	calc := NewDemandWindowCalculator(ServiceParams{}, brisbane)
	value, lookback, err := calc.Compute(context.Background(), billing.BillingCycle{}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, value)
	assert.Nil(t, lookback)
}

func TestDemandPeak(t *testing.T) {
	calc := NewDemandWindowCalculator(ServiceParams{}, brisbane)
	cfg := demandConfig(t, types.DemandMethodPeak)

	cycle := billing.BillingCycle{
		Label: "2025-06",
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, brisbane),
		End:   time.Date(2025, 7, 1, 0, 0, 0, 0, brisbane),
		Intervals: []meter.IntervalRecord{
			// 0.5 kWh over 30 min is 1 kW; 1.25 kWh is 2.5 kW.
			importAt(time.Date(2025, 6, 2, 16, 0, 0, 0, brisbane), "0.5"),
			importAt(time.Date(2025, 6, 3, 17, 30, 0, 0, brisbane), "1.25"),
			// Outside the 15:00-21:00 window: never a candidate.
			importAt(time.Date(2025, 6, 4, 9, 0, 0, 0, brisbane), "5"),
		},
	}

	value, _, err := calc.Compute(context.Background(), cycle, cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.True(t, value.Equal(decimal.RequireFromString("2.5")), "got %s", value)
}

func TestDemandPeakIgnoresExportFlow(t *testing.T) {
	calc := NewDemandWindowCalculator(ServiceParams{}, brisbane)
	cfg := demandConfig(t, types.DemandMethodPeak)

	export := importAt(time.Date(2025, 6, 2, 16, 0, 0, 0, brisbane), "3")
	export.Flow = types.FlowGridExport
	export.Channel = "B1"

	cycle := billing.BillingCycle{
		Intervals: []meter.IntervalRecord{
			export,
			importAt(time.Date(2025, 6, 2, 17, 0, 0, 0, brisbane), "0.5"),
		},
	}

	value, _, err := calc.Compute(context.Background(), cycle, cfg, nil)
	require.NoError(t, err)
	assert.True(t, value.Equal(decimal.NewFromInt(1)), "got %s", value)
}

func TestDemandEmptyWindowIsZero(t *testing.T) {
	calc := NewDemandWindowCalculator(ServiceParams{}, brisbane)
	cfg := demandConfig(t, types.DemandMethodPeak)

	cycle := billing.BillingCycle{
		Intervals: []meter.IntervalRecord{
			importAt(time.Date(2025, 6, 2, 9, 0, 0, 0, brisbane), "5"),
		},
	}

	value, _, err := calc.Compute(context.Background(), cycle, cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.True(t, value.IsZero())
}

func TestDemandRollingAverage(t *testing.T) {
	calc := NewDemandWindowCalculator(ServiceParams{}, brisbane)

	// One windowed sample per day at 1, 2, then 3 kW.
	cycle := billing.BillingCycle{
		Label: "2025-06",
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, brisbane),
		End:   time.Date(2025, 7, 1, 0, 0, 0, 0, brisbane),
		Intervals: []meter.IntervalRecord{
			importAt(time.Date(2025, 6, 2, 16, 0, 0, 0, brisbane), "0.5"),
			importAt(time.Date(2025, 6, 3, 16, 0, 0, 0, brisbane), "1"),
			importAt(time.Date(2025, 6, 4, 16, 0, 0, 0, brisbane), "1.5"),
		},
	}

	t.Run("span covers all samples", func(t *testing.T) {
		cfg := &tariff.DemandCharge{Start: "15:00", End: "21:00", Method: types.DemandMethodRollingAvg, RollingSpanDays: 30}
		require.NoError(t, cfg.Compile())

		value, _, err := calc.Compute(context.Background(), cycle, cfg, nil)
		require.NoError(t, err)
		// Best window is all three samples: mean of 1, 2, 3 kW.
		assert.True(t, value.Equal(decimal.NewFromInt(2)), "got %s", value)
	})

	t.Run("one-day span degenerates to peak", func(t *testing.T) {
		cfg := &tariff.DemandCharge{Start: "15:00", End: "21:00", Method: types.DemandMethodRollingAvg, RollingSpanDays: 1}
		require.NoError(t, cfg.Compile())

		value, _, err := calc.Compute(context.Background(), cycle, cfg, nil)
		require.NoError(t, err)
		assert.True(t, value.Equal(decimal.NewFromInt(3)), "got %s", value)
	})
}

func TestDemandRollingLookback(t *testing.T) {
	calc := NewDemandWindowCalculator(ServiceParams{}, brisbane)
	cfg := &tariff.DemandCharge{
		Start: "15:00", End: "21:00",
		Method:          types.DemandMethodRollingAvg,
		RollingSpanDays: 30,
		AllowLookback:   true,
	}
	require.NoError(t, cfg.Compile())

	june := billing.BillingCycle{
		Label: "2025-06",
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, brisbane),
		End:   time.Date(2025, 7, 1, 0, 0, 0, 0, brisbane),
		Intervals: []meter.IntervalRecord{
			importAt(time.Date(2025, 6, 28, 16, 0, 0, 0, brisbane), "2"), // 4 kW
			importAt(time.Date(2025, 6, 29, 16, 0, 0, 0, brisbane), "2"),
		},
	}
	july := billing.BillingCycle{
		Label: "2025-07",
		Start: time.Date(2025, 7, 1, 0, 0, 0, 0, brisbane),
		End:   time.Date(2025, 8, 1, 0, 0, 0, 0, brisbane),
		Intervals: []meter.IntervalRecord{
			importAt(time.Date(2025, 7, 1, 16, 0, 0, 0, brisbane), "0.5"), // 1 kW
		},
	}

	_, lookback, err := calc.Compute(context.Background(), june, cfg, nil)
	require.NoError(t, err)
	require.Len(t, lookback, 2)

	value, _, err := calc.Compute(context.Background(), july, cfg, lookback)
	require.NoError(t, err)
	// July's only window ends at its single 1 kW sample but is seeded by
	// June's trailing 4 kW samples: mean of 4, 4, 1.
	assert.True(t, value.Equal(decimal.NewFromInt(3)), "got %s", value)

	// Without lookback the same cycle stands alone.
	solo := &tariff.DemandCharge{Start: "15:00", End: "21:00", Method: types.DemandMethodRollingAvg, RollingSpanDays: 30}
	require.NoError(t, solo.Compile())
	value, _, err = calc.Compute(context.Background(), july, solo, nil)
	require.NoError(t, err)
	assert.True(t, value.Equal(decimal.NewFromInt(1)), "got %s", value)
}

func TestDemandLookbackBufferUsesConfiguredSpan(t *testing.T) {
	// The demand config leaves the span unset, so the engine default of
	// 45 days applies; the lookback buffer must be trimmed with that same
	// span, not the built-in 30-day default.
	cfg := config.GetDefaultConfig()
	cfg.Billing.RollingSpanDays = 45
	calc := NewDemandWindowCalculator(ServiceParams{Config: cfg}, brisbane)

	charge := &tariff.DemandCharge{
		Start: "15:00", End: "21:00",
		Method:        types.DemandMethodRollingAvg,
		AllowLookback: true,
	}
	require.NoError(t, charge.Compile())

	// A 4 kW sample 37 days before the first cycle's end: inside a 45-day
	// trailing span but outside a 30-day one.
	first := billing.BillingCycle{
		Label: "2025-05-01→2025-06-30",
		Start: time.Date(2025, 5, 1, 0, 0, 0, 0, brisbane),
		End:   time.Date(2025, 7, 1, 0, 0, 0, 0, brisbane),
		Intervals: []meter.IntervalRecord{
			importAt(time.Date(2025, 5, 25, 16, 0, 0, 0, brisbane), "2"),
		},
	}
	second := billing.BillingCycle{
		Label: "2025-07-01→2025-07-31",
		Start: time.Date(2025, 7, 1, 0, 0, 0, 0, brisbane),
		End:   time.Date(2025, 8, 1, 0, 0, 0, 0, brisbane),
		Intervals: []meter.IntervalRecord{
			importAt(time.Date(2025, 7, 2, 16, 0, 0, 0, brisbane), "0.5"),
		},
	}

	_, lookback, err := calc.Compute(context.Background(), first, charge, nil)
	require.NoError(t, err)
	require.Len(t, lookback, 1)

	value, _, err := calc.Compute(context.Background(), second, charge, lookback)
	require.NoError(t, err)
	// The July window at its 1 kW sample reaches back 45 days and still
	// sees the May 4 kW sample: mean of 4 and 1.
	assert.True(t, value.Equal(decimal.RequireFromString("2.5")), "got %s", value)
}
