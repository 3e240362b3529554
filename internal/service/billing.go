package service

import (
	"context"
	"runtime"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"

	"github.com/gridbill/gridbill/internal/domain/billing"
	"github.com/gridbill/gridbill/internal/domain/meter"
	"github.com/gridbill/gridbill/internal/domain/tariff"
	ierr "github.com/gridbill/gridbill/internal/errors"
	"github.com/gridbill/gridbill/internal/types"
)

// BillingService runs the full pipeline: segment, classify, compute
// demand, aggregate, estimate. Each stage is pure over its inputs; the
// service only wires them together.
type BillingService interface {
	// ComputeBillables produces one Billable per cycle plus the count of
	// intervals outside every cycle boundary.
	ComputeBillables(ctx context.Context, series *meter.Series, plan *tariff.BillingPlan) ([]*billing.Billable, int, error)
	// EstimateCosts produces the billables and their itemized breakdowns.
	EstimateCosts(ctx context.Context, series *meter.Series, plan *tariff.BillingPlan, rates *tariff.TariffRates) (*billing.BillRun, error)
	// CompareTariffs prices the same series under two rate structures and
	// reports per-cycle and total deltas.
	CompareTariffs(ctx context.Context, series *meter.Series, plan *tariff.BillingPlan, base, other *tariff.TariffRates) (*billing.TariffComparison, error)
}

type billingService struct {
	ServiceParams
	segmenter  CycleSegmenter
	aggregator BillablesAggregator
	estimator  CostEstimator
}

// NewBillingService creates a new billing service.
func NewBillingService(params ServiceParams) BillingService {
	params = params.withDefaults()
	return &billingService{
		ServiceParams: params,
		segmenter:     NewCycleSegmenter(params),
		aggregator:    NewBillablesAggregator(params),
		estimator:     NewCostEstimator(params),
	}
}

func (s *billingService) ComputeBillables(ctx context.Context, series *meter.Series, plan *tariff.BillingPlan) ([]*billing.Billable, int, error) {
	if err := series.Validate(); err != nil {
		return nil, 0, err
	}
	if plan == nil {
		return nil, 0, ierr.NewError("billing plan is required").
			Mark(ierr.ErrValidation)
	}
	if err := plan.Validate(); err != nil {
		return nil, 0, err
	}

	loc, err := s.planLocation(series, plan)
	if err != nil {
		return nil, 0, err
	}

	segments, err := s.segmenter.Segment(ctx, series, plan)
	if err != nil {
		return nil, 0, err
	}

	classifier, err := NewTouClassifier(s.ServiceParams, plan.TouBands, loc)
	if err != nil {
		return nil, 0, err
	}
	demandCalc := NewDemandWindowCalculator(s.ServiceParams, loc)

	var billables []*billing.Billable
	if plan.Demand != nil && plan.Demand.AllowLookback {
		// Rolling lookback couples adjacent cycles; compute in order,
		// threading the bounded sample buffer between them.
		billables, err = s.computeSequential(ctx, segments.Cycles, plan, classifier, demandCalc)
	} else {
		billables, err = s.computeParallel(ctx, segments.Cycles, plan, classifier, demandCalc)
	}
	if err != nil {
		return nil, 0, err
	}

	s.Logger.Infow("computed billables",
		"nmi", series.NMI,
		"cycles", len(billables),
		"uncovered", segments.Uncovered,
	)
	return billables, segments.Uncovered, nil
}

func (s *billingService) EstimateCosts(ctx context.Context, series *meter.Series, plan *tariff.BillingPlan, rates *tariff.TariffRates) (*billing.BillRun, error) {
	if rates == nil {
		return nil, ierr.NewError("tariff rates are required").
			Mark(ierr.ErrRateConfig)
	}

	billables, uncovered, err := s.ComputeBillables(ctx, series, plan)
	if err != nil {
		return nil, err
	}

	breakdowns, err := s.estimator.Estimate(ctx, billables, rates)
	if err != nil {
		return nil, err
	}

	run := &billing.BillRun{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILL_RUN),
		NMI:        series.NMI,
		Uncovered:  uncovered,
		Billables:  billables,
		Breakdowns: breakdowns,
	}
	s.Logger.Infow("estimated cycle costs",
		"run_id", run.ID,
		"nmi", run.NMI,
		"cycles", len(run.Breakdowns),
	)
	return run, nil
}

func (s *billingService) CompareTariffs(ctx context.Context, series *meter.Series, plan *tariff.BillingPlan, base, other *tariff.TariffRates) (*billing.TariffComparison, error) {
	baseRun, err := s.EstimateCosts(ctx, series, plan, base)
	if err != nil {
		return nil, err
	}
	otherRun, err := s.EstimateCosts(ctx, series, plan, other)
	if err != nil {
		return nil, err
	}

	deltas := make([]billing.CycleDelta, len(baseRun.Breakdowns))
	totalDelta := lo.Reduce(baseRun.Breakdowns, func(acc decimal.Decimal, bd *billing.CostBreakdown, i int) decimal.Decimal {
		delta := otherRun.Breakdowns[i].Total.Sub(bd.Total)
		deltas[i] = billing.CycleDelta{
			CycleLabel: bd.CycleLabel,
			BaseTotal:  bd.Total,
			OtherTotal: otherRun.Breakdowns[i].Total,
			Delta:      delta,
		}
		return acc.Add(delta)
	}, decimal.Zero)

	return &billing.TariffComparison{
		Base:       baseRun,
		Other:      otherRun,
		Deltas:     deltas,
		TotalDelta: totalDelta,
	}, nil
}

func (s *billingService) computeCycle(ctx context.Context, cycle billing.BillingCycle, plan *tariff.BillingPlan, classifier TouClassifier, demandCalc DemandWindowCalculator, lookback []DemandSample) (*billing.Billable, []DemandSample, error) {
	classified, err := classifier.Classify(ctx, cycle)
	if err != nil {
		return nil, nil, err
	}
	demandKW, nextLookback, err := demandCalc.Compute(ctx, cycle, plan.Demand, lookback)
	if err != nil {
		return nil, nil, err
	}
	billable, err := s.aggregator.Aggregate(ctx, cycle, classified, demandKW)
	if err != nil {
		return nil, nil, err
	}
	return billable, nextLookback, nil
}

func (s *billingService) computeSequential(ctx context.Context, cycles []billing.BillingCycle, plan *tariff.BillingPlan, classifier TouClassifier, demandCalc DemandWindowCalculator) ([]*billing.Billable, error) {
	billables := make([]*billing.Billable, 0, len(cycles))
	var lookback []DemandSample
	for _, cycle := range cycles {
		billable, next, err := s.computeCycle(ctx, cycle, plan, classifier, demandCalc, lookback)
		if err != nil {
			return nil, err
		}
		billables = append(billables, billable)
		lookback = next
	}
	return billables, nil
}

// computeParallel fans cycles out over a bounded worker pool. Inputs are
// read-only and each worker writes a distinct slot, so no cycle observes
// another's output.
func (s *billingService) computeParallel(ctx context.Context, cycles []billing.BillingCycle, plan *tariff.BillingPlan, classifier TouClassifier, demandCalc DemandWindowCalculator) ([]*billing.Billable, error) {
	workers := s.Config.Billing.MaxParallelCycles
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	billables := make([]*billing.Billable, len(cycles))
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(workers)
	for i := range cycles {
		i := i
		p.Go(func(ctx context.Context) error {
			billable, _, err := s.computeCycle(ctx, cycles[i], plan, classifier, demandCalc, nil)
			if err != nil {
				return err
			}
			billables[i] = billable
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return billables, nil
}

func (s *billingService) planLocation(series *meter.Series, plan *tariff.BillingPlan) (*time.Location, error) {
	if plan.Timezone != "" {
		return types.LoadTimezone(plan.Timezone)
	}
	if series.Timezone != nil {
		return series.Timezone, nil
	}
	return types.LoadTimezone(s.Config.Billing.Timezone)
}
