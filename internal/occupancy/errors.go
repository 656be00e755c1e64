package occupancy

import "errors"

var (
	// ErrInvalidConfiguration is returned when a probability lies outside
	// the open interval (0,1) or the grid size is not positive.
	ErrInvalidConfiguration = errors.New("invalid occupancy configuration")

	// ErrOutOfRangeCoordinate is returned at session creation when a plan
	// entry references a cell outside the grid.
	ErrOutOfRangeCoordinate = errors.New("cell outside grid")

	// ErrStepOutOfPlan is returned when an observation index does not
	// address an entry of the session's observation plan.
	ErrStepOutOfPlan = errors.New("step index outside observation plan")
)
