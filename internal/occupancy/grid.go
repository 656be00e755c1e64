package occupancy

import (
	"fmt"
	"strings"
)

// Cell addresses one grid square. Rows grow downwards, columns to the right.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.Row, c.Col) }

// Direction is the grid-relative facing of the range sensor.
type Direction int

const (
	Right Direction = iota
	Up
	Left
	Down
)

var directionNames = [...]string{"R", "U", "L", "D"}

func (d Direction) String() string {
	if d < Right || d > Down {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection accepts the short forms R/U/L/D and the full names,
// case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "R", "RIGHT":
		return Right, nil
	case "U", "UP":
		return Up, nil
	case "L", "LEFT":
		return Left, nil
	case "D", "DOWN":
		return Down, nil
	}
	return 0, fmt.Errorf("unknown direction %q: expected R, U, L or D", s)
}

// delta returns the (row, col) offset of one step.
func (d Direction) delta() (int, int) {
	switch d {
	case Right:
		return 0, 1
	case Up:
		return -1, 0
	case Left:
		return 0, -1
	case Down:
		return 1, 0
	}
	return 0, 0
}

// Grid is a square N×N grid stored row-major as N² cells.
type Grid struct {
	Size int
}

// Cells returns N².
func (g Grid) Cells() int { return g.Size * g.Size }

// Contains reports whether c lies inside the grid.
func (g Grid) Contains(c Cell) bool {
	return c.Row >= 0 && c.Row < g.Size && c.Col >= 0 && c.Col < g.Size
}

// Index returns the row-major flat index of c. c must be inside the grid.
func (g Grid) Index(c Cell) int {
	return c.Row*g.Size + c.Col
}

// CellAt is the inverse of Index.
func (g Grid) CellAt(index int) Cell {
	return Cell{Row: index / g.Size, Col: index % g.Size}
}

// Step moves one cell in dir. When the neighbour would leave the grid the
// original cell is returned with ok == false.
func (g Grid) Step(c Cell, dir Direction) (Cell, bool) {
	dr, dc := dir.delta()
	next := Cell{Row: c.Row + dr, Col: c.Col + dc}
	if !g.Contains(next) {
		return c, false
	}
	return next, true
}
