package monitor

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/gridmap/internal/security"
)

// GridPlotter renders occupancy maps and log-odds histories to PNG.
type GridPlotter struct {
	outputDir string
}

// NewGridPlotter creates a plotter that writes files under outputDir.
func NewGridPlotter(outputDir string) *GridPlotter {
	return &GridPlotter{outputDir: outputDir}
}

// probabilityGrid adapts a row-major probability map to plotter.GridXYZ.
// Plot rows run bottom-up, so grid row 0 is drawn at the top.
type probabilityGrid struct {
	size  int
	probs []float64
}

func (g probabilityGrid) Dims() (c, r int) { return g.size, g.size }
func (g probabilityGrid) X(c int) float64  { return float64(c) }
func (g probabilityGrid) Y(r int) float64  { return float64(r) }
func (g probabilityGrid) Z(c, r int) float64 {
	row := g.size - 1 - r
	return g.probs[row*g.size+c]
}

// ProbabilityPlot builds a heatmap of probs, a row-major size x size map.
func ProbabilityPlot(probs []float64, size int, title string) (*plot.Plot, error) {
	if size <= 0 || len(probs) != size*size {
		return nil, fmt.Errorf("probability map has %d cells, want %d", len(probs), size*size)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Row"

	hm := plotter.NewHeatMap(probabilityGrid{size: size, probs: probs}, palette.Heat(12, 1))
	hm.Min = 0
	hm.Max = 1
	p.Add(hm)

	colTicks := make([]plot.Tick, size)
	rowTicks := make([]plot.Tick, size)
	for i := 0; i < size; i++ {
		colTicks[i] = plot.Tick{Value: float64(i), Label: fmt.Sprintf("%d", i)}
		rowTicks[i] = plot.Tick{Value: float64(size - 1 - i), Label: fmt.Sprintf("%d", i)}
	}
	p.X.Tick.Marker = plot.ConstantTicks(colTicks)
	p.Y.Tick.Marker = plot.ConstantTicks(rowTicks)
	return p, nil
}

// WriteProbabilityPNG renders the heatmap as a PNG to w.
func WriteProbabilityPNG(w io.Writer, probs []float64, size int, title string) error {
	p, err := ProbabilityPlot(probs, size, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(6*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveProbability writes the heatmap to <outputDir>/<name>. name is
// sanitized, so callers may derive it from a session ID.
func (gp *GridPlotter) SaveProbability(name string, probs []float64, size int, title string) (string, error) {
	if err := gp.ensureDir(); err != nil {
		return "", err
	}
	p, err := ProbabilityPlot(probs, size, title)
	if err != nil {
		return "", err
	}
	path, err := security.SafeJoin(gp.outputDir, name)
	if err != nil {
		return "", err
	}
	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return "", fmt.Errorf("save probability plot: %w", err)
	}
	return path, nil
}

// GenerateHistoryPlots writes one line plot per grid row showing the
// log-odds of each cell in that row across history columns. table has one
// slice per cell in row-major order. Returns the number of plots written.
func (gp *GridPlotter) GenerateHistoryPlots(table [][]float64, size int) (int, error) {
	if gp.outputDir == "" {
		return 0, fmt.Errorf("no output directory configured")
	}
	if size <= 0 || len(table) != size*size {
		return 0, fmt.Errorf("history has %d cells, want %d", len(table), size*size)
	}
	if err := gp.ensureDir(); err != nil {
		return 0, err
	}

	colors := generateColors(size)
	count := 0
	for row := 0; row < size; row++ {
		p := plot.New()
		p.Title.Text = fmt.Sprintf("Row %d - Log-odds history", row)
		p.X.Label.Text = "Step"
		p.Y.Label.Text = "Log-odds"

		for col := 0; col < size; col++ {
			idx := row*size + col
			pts := make(plotter.XYs, len(table[idx]))
			for t, v := range table[idx] {
				pts[t] = plotter.XY{X: float64(t), Y: v}
			}
			line, err := plotter.NewLine(pts)
			if err != nil {
				return count, err
			}
			line.Color = colors[col]
			line.Width = vg.Points(1)
			p.Add(line)
			p.Legend.Add(fmt.Sprintf("cell %d", idx+1), line)
		}

		p.Legend.Top = true
		p.Legend.Left = false
		p.Legend.XOffs = -10
		p.Legend.YOffs = -10

		file := filepath.Join(gp.outputDir, fmt.Sprintf("row_%02d_logodds.png", row))
		if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
			return count, fmt.Errorf("save row %d plot: %w", row, err)
		}
		count++
	}
	return count, nil
}

func (gp *GridPlotter) ensureDir() error {
	if err := os.MkdirAll(gp.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	return nil
}

// generateColors creates a palette of distinct colors for cell lines
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := uint8(math.Round(l * 255))
		return v, v, v
	}
	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255),
		uint8(hueToRGB(p, q, h) * 255),
		uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
