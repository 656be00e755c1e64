package occupancy

import (
	"fmt"
	"math"
)

// LogOdds returns ln(p/(1-p)). p must lie in (0,1); use ValidateProbability
// before calling with untrusted input.
func LogOdds(p float64) float64 {
	return math.Log(p / (1 - p))
}

// ValidateProbability reports ErrInvalidConfiguration for p outside (0,1).
func ValidateProbability(name string, p float64) error {
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return fmt.Errorf("%w: %s must be in (0,1), got %v", ErrInvalidConfiguration, name, p)
	}
	return nil
}

// LogOddsModel holds the inverse sensor model for a single ray: the
// probability that a traversed cell is occupied (PFree) and the probability
// that a cell beyond the reported range is occupied (POccupied).
type LogOddsModel struct {
	PFree     float64
	POccupied float64

	free     float64
	occupied float64
}

// NewLogOddsModel validates both probabilities and precomputes their
// log-odds increments.
func NewLogOddsModel(pFree, pOccupied float64) (LogOddsModel, error) {
	if err := ValidateProbability("p_free", pFree); err != nil {
		return LogOddsModel{}, err
	}
	if err := ValidateProbability("p_occupied", pOccupied); err != nil {
		return LogOddsModel{}, err
	}
	return LogOddsModel{
		PFree:     pFree,
		POccupied: pOccupied,
		free:      LogOdds(pFree),
		occupied:  LogOdds(pOccupied),
	}, nil
}

// Free is the log-odds increment applied to cells the ray passed through.
func (m LogOddsModel) Free() float64 { return m.free }

// Occupied is the log-odds increment applied to cells past the reported range.
func (m LogOddsModel) Occupied() float64 { return m.occupied }

// Unknown returns the log-odds of the prior p. The engine seeds every
// session with p = 0.5, which is exactly zero.
func (m LogOddsModel) Unknown(p float64) float64 { return LogOdds(p) }
