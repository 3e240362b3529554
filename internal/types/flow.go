package types

import (
	ierr "github.com/gridbill/gridbill/internal/errors"
)

// Flow classifies the direction and kind of energy measured by a channel.
type Flow string

const (
	// FlowGridImport is energy drawn from the grid on the general channel.
	FlowGridImport Flow = "grid_import"
	// FlowGridExport is energy exported to the grid, e.g. from solar.
	FlowGridExport Flow = "grid_export"
	// FlowControlledLoadImport is energy drawn on a controlled-load channel.
	FlowControlledLoadImport Flow = "controlled_load_import"
)

func (f Flow) String() string {
	return string(f)
}

// IsImport reports whether the flow is billed as consumption.
func (f Flow) IsImport() bool {
	return f == FlowGridImport || f == FlowControlledLoadImport
}

func (f Flow) Validate() error {
	switch f {
	case FlowGridImport, FlowGridExport, FlowControlledLoadImport:
		return nil
	default:
		return ierr.NewErrorf("invalid flow: %s", f).
			WithHint("Flow must be one of grid_import, grid_export, controlled_load_import").
			Mark(ierr.ErrValidation)
	}
}
