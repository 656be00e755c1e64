package monitor

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbabilityGrid_TopRowDrawnAtTop(t *testing.T) {
	g := probabilityGrid{size: 2, probs: []float64{0.1, 0.2, 0.3, 0.4}}
	c, r := g.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, r)
	// Plot row 1 (top) is grid row 0.
	assert.Equal(t, 0.1, g.Z(0, 1))
	assert.Equal(t, 0.2, g.Z(1, 1))
	assert.Equal(t, 0.3, g.Z(0, 0))
	assert.Equal(t, 0.4, g.Z(1, 0))
}

func TestProbabilityPlot_RejectsWrongShape(t *testing.T) {
	_, err := ProbabilityPlot([]float64{0.5, 0.5}, 3, "x")
	assert.Error(t, err)
	_, err = ProbabilityPlot(nil, 0, "x")
	assert.Error(t, err)
}

func TestWriteProbabilityPNG(t *testing.T) {
	probs := []float64{0.5, 0.8, 0.2, 0.5, 0.5, 0.5, 0.94, 0.06, 0.5}
	var buf bytes.Buffer
	require.NoError(t, WriteProbabilityPNG(&buf, probs, 3, "test"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestGridPlotter_SaveProbability(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	gp := NewGridPlotter(dir)
	path, err := gp.SaveProbability("map.png", []float64{0.5, 0.5, 0.5, 0.5}, 2, "empty")
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestGridPlotter_GenerateHistoryPlots(t *testing.T) {
	dir := t.TempDir()
	gp := NewGridPlotter(dir)

	table := make([][]float64, 9)
	for i := range table {
		table[i] = []float64{0, float64(i) * 0.1, float64(i) * -0.2}
	}
	n, err := gp.GenerateHistoryPlots(table, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	for _, name := range []string{"row_00_logodds.png", "row_01_logodds.png", "row_02_logodds.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	_, err = gp.GenerateHistoryPlots(table[:4], 3)
	assert.Error(t, err)
	_, err = NewGridPlotter("").GenerateHistoryPlots(table, 3)
	assert.Error(t, err)
}

func TestGenerateColors(t *testing.T) {
	assert.Nil(t, generateColors(0))
	colors := generateColors(6)
	require.Len(t, colors, 6)
	seen := map[[4]uint32]bool{}
	for _, c := range colors {
		r, g, b, a := c.RGBA()
		key := [4]uint32{r, g, b, a}
		assert.False(t, seen[key], "duplicate colour found in generated palette")
		seen[key] = true
	}
}

func TestHSLToRGB(t *testing.T) {
	r, g, b := hslToRGB(0, 0, 0.5)
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)

	r, g, b = hslToRGB(0, 1, 0.5)
	assert.Equal(t, uint8(255), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(0), b)
}

func TestGridPlotter_SaveProbabilitySanitizesName(t *testing.T) {
	dir := t.TempDir()
	gp := NewGridPlotter(dir)
	path, err := gp.SaveProbability("../outside.png", []float64{0.5, 0.5, 0.5, 0.5}, 2, "two")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "outside.png"), path)
}
