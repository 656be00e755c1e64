package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/gridmap/internal/httputil"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// heatmapData converts a row-major map to echarts [x, y, value] triples.
// echarts draws y upwards, so row 0 is placed on the last category.
func heatmapData(probs []float64, size int) []opts.HeatMapData {
	data := make([]opts.HeatMapData, 0, len(probs))
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			v := math.Round(probs[row*size+col]*1e4) / 1e4
			data = append(data, opts.HeatMapData{Value: [3]interface{}{col, size - 1 - row, v}})
		}
	}
	return data
}

// handleProbabilityChart renders the current probability map as an
// interactive heatmap.
func (ws *WebServer) handleProbabilityChart(w http.ResponseWriter, r *http.Request) {
	snap := ws.mapper.Snapshot()

	cols := make([]string, snap.GridSize)
	rows := make([]string, snap.GridSize)
	for i := range cols {
		cols[i] = strconv.Itoa(i)
		rows[snap.GridSize-1-i] = strconv.Itoa(i)
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Occupancy Grid", Theme: "dark", Width: "720px", Height: "720px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Occupancy probability", Subtitle: fmt.Sprintf("session=%s step=%d/%d", snap.SessionID, snap.Latest, snap.PlanLength)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: cols, Name: "Column", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: rows, Name: "Row", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        1,
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	hm.AddSeries("probability", heatmapData(snap.Probability, snap.GridSize))

	var buf bytes.Buffer
	if err := hm.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render heatmap chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (ws *WebServer) handleProbabilityPNG(w http.ResponseWriter, r *http.Request) {
	snap := ws.mapper.Snapshot()
	var buf bytes.Buffer
	title := fmt.Sprintf("Occupancy probability (step %d)", snap.Latest)
	if err := WriteProbabilityPNG(&buf, snap.Probability, snap.GridSize, title); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}
