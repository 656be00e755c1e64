package occupancy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridIndexRoundTrip(t *testing.T) {
	t.Parallel()

	for n := 1; n <= 9; n++ {
		g := Grid{Size: n}
		seen := make(map[int]bool, g.Cells())
		for row := 0; row < n; row++ {
			for col := 0; col < n; col++ {
				c := Cell{Row: row, Col: col}
				idx := g.Index(c)
				assert.Equal(t, row*n+col, idx)
				assert.Equal(t, c, g.CellAt(idx), "n=%d", n)
				seen[idx] = true
			}
		}
		assert.Len(t, seen, g.Cells())
	}
}

func TestGridStep(t *testing.T) {
	t.Parallel()

	g := Grid{Size: 3}
	tests := []struct {
		from Cell
		dir  Direction
		want Cell
		ok   bool
	}{
		{Cell{1, 1}, Right, Cell{1, 2}, true},
		{Cell{1, 1}, Up, Cell{0, 1}, true},
		{Cell{1, 1}, Left, Cell{1, 0}, true},
		{Cell{1, 1}, Down, Cell{2, 1}, true},
		{Cell{1, 2}, Right, Cell{1, 2}, false},
		{Cell{0, 1}, Up, Cell{0, 1}, false},
		{Cell{1, 0}, Left, Cell{1, 0}, false},
		{Cell{2, 1}, Down, Cell{2, 1}, false},
	}
	for _, tt := range tests {
		got, ok := g.Step(tt.from, tt.dir)
		assert.Equal(t, tt.ok, ok, "%s %s", tt.from, tt.dir)
		assert.Equal(t, tt.want, got, "%s %s", tt.from, tt.dir)
	}
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Direction{
		"R": Right, "u": Up, "Left": Left, " down ": Down,
	} {
		got, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDirection("north")
	assert.Error(t, err)

	assert.Equal(t, "U", Up.String())
	assert.Equal(t, "Direction(7)", Direction(7).String())
}
