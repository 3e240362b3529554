package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gridbill/gridbill/internal/domain/billing"
	"github.com/gridbill/gridbill/internal/types"
)

// BillablesAggregator combines a cycle's classified intervals and demand
// value into one Billable. A cycle with no intervals still yields a
// Billable with zero quantities so fixed charges can apply downstream.
type BillablesAggregator interface {
	Aggregate(ctx context.Context, cycle billing.BillingCycle, classified []billing.ClassifiedInterval, demandKW *decimal.Decimal) (*billing.Billable, error)
}

type billablesAggregator struct {
	ServiceParams
}

// NewBillablesAggregator creates a new billables aggregator.
func NewBillablesAggregator(params ServiceParams) BillablesAggregator {
	return &billablesAggregator{ServiceParams: params.withDefaults()}
}

func (a *billablesAggregator) Aggregate(ctx context.Context, cycle billing.BillingCycle, classified []billing.ClassifiedInterval, demandKW *decimal.Decimal) (*billing.Billable, error) {
	usage := make(map[types.Flow]map[string]decimal.Decimal)
	exportKWH := decimal.Zero

	for _, r := range classified {
		bands, ok := usage[r.Flow]
		if !ok {
			bands = make(map[string]decimal.Decimal)
			usage[r.Flow] = bands
		}
		bands[r.Band] = bands[r.Band].Add(r.KWH)

		if r.Flow == types.FlowGridExport {
			exportKWH = exportKWH.Add(r.KWH)
		}
	}

	return &billing.Billable{
		CycleLabel: cycle.Label,
		Start:      cycle.Start,
		End:        cycle.End,
		// Day count comes from the declared cycle range: a data gap does
		// not shrink the fixed-charge proration.
		DayCount:  cycle.DayCount(),
		Usage:     usage,
		DemandKW:  demandKW,
		ExportKWH: exportKWH,
	}, nil
}
