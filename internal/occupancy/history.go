package occupancy

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// History is the (N², T+1) log-odds table. Column 0 is the all-zero prior
// and column t holds the accumulated state after observation t.
type History struct {
	m *mat.Dense
}

// NewHistory allocates a zeroed table with cells rows and steps+1 columns.
func NewHistory(cells, steps int) *History {
	return &History{m: mat.NewDense(cells, steps+1, nil)}
}

// Rows returns the number of cells.
func (h *History) Rows() int {
	r, _ := h.m.Dims()
	return r
}

// Cols returns the number of time columns including the prior.
func (h *History) Cols() int {
	_, c := h.m.Dims()
	return c
}

// Column returns a copy of column t.
func (h *History) Column(t int) []float64 {
	return mat.Col(nil, t, h.m)
}

// SetColumn overwrites column t with v.
func (h *History) SetColumn(t int, v []float64) error {
	if t < 0 || t >= h.Cols() {
		return fmt.Errorf("column %d outside history of %d columns", t, h.Cols())
	}
	if len(v) != h.Rows() {
		return fmt.Errorf("column length %d does not match %d cells", len(v), h.Rows())
	}
	h.m.SetCol(t, v)
	return nil
}

// At returns the log-odds of cell at time column t.
func (h *History) At(cell, t int) float64 {
	return h.m.At(cell, t)
}

// RowValues returns the full time series for one cell.
func (h *History) RowValues(cell int) []float64 {
	return mat.Row(nil, cell, h.m)
}

// Table returns the history as one slice per cell, matching the layout
// the viewer protocol sends.
func (h *History) Table() [][]float64 {
	out := make([][]float64, h.Rows())
	for i := range out {
		out[i] = h.RowValues(i)
	}
	return out
}

// Reset zeroes every column.
func (h *History) Reset() {
	h.m.Zero()
}
