package occupancy

// Update casts a single ray from start in dir and returns a new log-odds
// column derived from prev.
//
// The first rangeCells steps mark the cells they enter as free. The ray
// then keeps going for Size-rangeCells further steps and marks every cell
// it enters as occupied. Steps that would leave the grid do not move the
// ray but still count against the iteration budget, so the far-field pass
// always runs for a fixed number of iterations. A negative far-field
// budget (rangeCells > Size) is clamped to zero.
//
// prev is never modified.
func (g Grid) Update(start Cell, dir Direction, rangeCells int, prev []float64, model LogOddsModel) []float64 {
	next := make([]float64, len(prev))
	copy(next, prev)

	if rangeCells < 0 {
		rangeCells = 0
	}

	pos := start

	// After Size steps the ray is pinned against the boundary, so further
	// near-field iterations cannot change anything.
	near := rangeCells
	if near > g.Size {
		near = g.Size
	}
	for i := 0; i < near; i++ {
		moved, ok := g.Step(pos, dir)
		if !ok {
			continue
		}
		pos = moved
		next[g.Index(pos)] += model.Free()
	}

	far := g.Size - rangeCells
	for i := 0; i < far; i++ {
		moved, ok := g.Step(pos, dir)
		if !ok {
			continue
		}
		pos = moved
		next[g.Index(pos)] += model.Occupied()
	}

	return next
}
