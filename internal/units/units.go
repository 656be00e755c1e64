// Package units provides shared constants and conversions for range
// sensor distances.
package units

import "math"

// Unit constants
const (
	MM = "mm"
	CM = "cm"
	M  = "m"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MM, CM, M}

// DefaultCellSizeMM is the edge length of one grid cell. The robot reports
// distances in millimetres and the test field is laid out in 250 mm tiles.
const DefaultCellSizeMM = 250.0

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mm, cm, m"
}

// ToMillimetres converts a distance in the given units to millimetres.
// Unknown units are treated as millimetres, which is what the firmware sends.
func ToMillimetres(distance float64, unit string) float64 {
	switch unit {
	case CM:
		return distance * 10
	case M:
		return distance * 1000
	default:
		return distance
	}
}

// DistanceToCells converts a measured clearance to a whole number of grid
// cells. Readings below 1 mm mean the sensor reported nothing and give 0.
// maxCells > 0 clamps long readings; cellSizeMM <= 0 falls back to
// DefaultCellSizeMM.
func DistanceToCells(distanceMM, cellSizeMM float64, maxCells int) int {
	if math.IsNaN(distanceMM) || distanceMM < 1 {
		return 0
	}
	if cellSizeMM <= 0 {
		cellSizeMM = DefaultCellSizeMM
	}
	cells := math.Floor(distanceMM / cellSizeMM)
	if maxCells > 0 && cells > float64(maxCells) {
		return maxCells
	}
	if cells > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(cells)
}
