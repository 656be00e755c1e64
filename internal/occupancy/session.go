package occupancy

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// PlanStep is one entry of the fixed observation plan: where the agent
// stands and which way the sensor faces when observation t is taken.
type PlanStep struct {
	Cell      Cell
	Direction Direction
}

// Config describes one mapping session.
type Config struct {
	GridSize  int
	Plan      []PlanStep
	PFree     float64
	POccupied float64
}

// Session is one mapping run: a grid, a fixed plan and the resulting
// log-odds history. It must not be used from multiple goroutines at once.
type Session struct {
	ID    string
	Grid  Grid
	Plan  []PlanStep
	Model LogOddsModel

	history *History
	latest  int // most recently written column, 0 when none
}

// NewSession validates cfg and allocates the history table. Plan cells
// outside the grid are rejected here so that traversal never has to
// check its starting point.
func NewSession(cfg Config) (*Session, error) {
	if cfg.GridSize <= 0 {
		return nil, fmt.Errorf("%w: grid_size must be positive, got %d", ErrInvalidConfiguration, cfg.GridSize)
	}
	model, err := NewLogOddsModel(cfg.PFree, cfg.POccupied)
	if err != nil {
		return nil, err
	}
	grid := Grid{Size: cfg.GridSize}
	for i, step := range cfg.Plan {
		if !grid.Contains(step.Cell) {
			return nil, fmt.Errorf("%w: plan step %d at %s in %dx%d grid", ErrOutOfRangeCoordinate, i, step.Cell, grid.Size, grid.Size)
		}
		if step.Direction < Right || step.Direction > Down {
			return nil, fmt.Errorf("%w: plan step %d has %s", ErrInvalidConfiguration, i, step.Direction)
		}
	}

	plan := make([]PlanStep, len(cfg.Plan))
	copy(plan, cfg.Plan)

	return &Session{
		ID:      uuid.New().String(),
		Grid:    grid,
		Plan:    plan,
		Model:   model,
		history: NewHistory(grid.Cells(), len(plan)),
	}, nil
}

// CellRange converts a sensor clearance in cell units to the integer range
// used for traversal. Values below one cell (including negatives and NaN)
// report no clearance; larger values are truncated.
func CellRange(v float64) int {
	if math.IsNaN(v) || v < 1 {
		return 0
	}
	if v >= float64(math.MaxInt32) {
		return math.MaxInt32
	}
	return int(math.Floor(v))
}

// ApplyObservation folds the reading for plan entry step into the history
// and returns the new column (written at index step+1).
//
// Step 0 always starts from the all-zero prior, which restarts the map
// even if earlier columns hold stale evidence. Other steps read column
// step; callers are expected to apply steps in increasing order.
func (s *Session) ApplyObservation(step int, rangeValue float64) ([]float64, error) {
	if step < 0 || step >= len(s.Plan) {
		return nil, fmt.Errorf("%w: step %d, plan has %d entries", ErrStepOutOfPlan, step, len(s.Plan))
	}

	var prev []float64
	if step == 0 {
		prev = make([]float64, s.Grid.Cells())
	} else {
		prev = s.history.Column(step)
	}

	ps := s.Plan[step]
	column := s.Grid.Update(ps.Cell, ps.Direction, CellRange(rangeValue), prev, s.Model)
	if err := s.history.SetColumn(step+1, column); err != nil {
		return nil, err
	}
	s.latest = step + 1

	out := make([]float64, len(column))
	copy(out, column)
	return out, nil
}

// Latest returns the index of the most recently written history column,
// or 0 when no observation has been applied.
func (s *Session) Latest() int { return s.latest }

// History exposes the log-odds table. Callers must not mutate it while
// observations are being applied.
func (s *Session) History() *History { return s.history }

// ProbabilityMap converts the most recently written column to occupancy
// probabilities. A session without observations yields 0.5 everywhere.
func (s *Session) ProbabilityMap() []float64 {
	if s.latest == 0 {
		return UnobservedMap(s.Grid.Cells())
	}
	return ProbabilityMap(s.history.Column(s.latest))
}

// Reset discards all accumulated evidence while keeping the plan.
func (s *Session) Reset() {
	s.history.Reset()
	s.latest = 0
}
