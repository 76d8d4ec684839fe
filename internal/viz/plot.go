package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"
)

type PlotOptions struct {
	Height  int
	Width   int
	Caption string
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Height: 12, Width: 80, Caption: "occupation vs site"}
}

// PlotOccupations renders an occupation profile as an ASCII line chart.
// Width 0 plots one column per site.
func PlotOccupations(occ []float64, opts PlotOptions) string {
	if len(occ) == 0 {
		return ""
	}
	data := occ
	if len(data) == 1 {
		// asciigraph needs two points to draw a line.
		data = []float64{occ[0], occ[0]}
	}

	graphOpts := []asciigraph.Option{asciigraph.Precision(4)}
	if opts.Height > 0 {
		graphOpts = append(graphOpts, asciigraph.Height(opts.Height))
	}
	if opts.Width > 0 {
		graphOpts = append(graphOpts, asciigraph.Width(opts.Width))
	}
	if opts.Caption != "" {
		graphOpts = append(graphOpts, asciigraph.Caption(opts.Caption))
	}
	return asciigraph.Plot(data, graphOpts...)
}

// PlotSeries renders several profiles of equal length on one chart, e.g.
// snapshots of the same run.
func PlotSeries(series [][]float64, opts PlotOptions) string {
	if len(series) == 0 {
		return ""
	}
	if len(series) == 1 {
		return PlotOccupations(series[0], opts)
	}
	graphOpts := []asciigraph.Option{asciigraph.Precision(4)}
	if opts.Height > 0 {
		graphOpts = append(graphOpts, asciigraph.Height(opts.Height))
	}
	if opts.Width > 0 {
		graphOpts = append(graphOpts, asciigraph.Width(opts.Width))
	}
	if opts.Caption != "" {
		graphOpts = append(graphOpts, asciigraph.Caption(opts.Caption))
	}
	return asciigraph.PlotMany(series, graphOpts...)
}

// RenderMetrics formats metrics as a bordered panel sorted by name.
func RenderMetrics(title string, metrics map[string]float64) string {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(headerStyle.Render(title) + "\n")
	for _, name := range names {
		b.WriteString(labelStyle.Render(name) + metricValueStyle.Render(fmt.Sprintf("%.6g", metrics[name])) + "\n")
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}
