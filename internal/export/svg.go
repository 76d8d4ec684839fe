package export

import (
	"fmt"
	"io"
	"math"
	"strings"
)

type SVGOptions struct {
	Width       int
	Height      int
	StrokeColor string
	// TrapColor marks sites carrying a non-zero binding energy.
	TrapColor string
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Width: 640, Height: 240, StrokeColor: "#00ff00", TrapColor: "#ff5f87"}
}

// ProfileToSVG renders an occupation profile as a polyline over the lattice.
// energies may be nil; otherwise sites with a non-zero binding energy are
// marked with a vertical tick. Returns "" when there is nothing to draw.
func ProfileToSVG(occ, energies []float64, opts SVGOptions) string {
	if len(occ) == 0 || opts.Width <= 0 || opts.Height <= 0 {
		return ""
	}

	minY, maxY := occ[0], occ[0]
	for _, v := range occ {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}

	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = math.Max(math.Abs(maxY), 1)
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	w, h := float64(opts.Width), float64(opts.Height)
	xAt := func(site int) float64 {
		if len(occ) == 1 {
			return w / 2
		}
		return float64(site) / float64(len(occ)-1) * w
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, opts.Width, opts.Height, opts.Width, opts.Height)

	for site, e := range energies {
		if e == 0 || site >= len(occ) {
			continue
		}
		x := xAt(site)
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="0" x2="%.1f" y2="%d" stroke="%s" stroke-dasharray="4 2"/>
`, x, x, opts.Height, opts.TrapColor)
	}

	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, opts.StrokeColor)
	for site, v := range occ {
		y := h - (v-minY)/rangeY*h
		if site == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", xAt(site), y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", xAt(site), y)
		}
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// WriteProfileSVG writes ProfileToSVG output to w.
func WriteProfileSVG(w io.Writer, occ, energies []float64, opts SVGOptions) error {
	svg := ProfileToSVG(occ, energies, opts)
	if svg == "" {
		return fmt.Errorf("export: nothing to render for %d sites", len(occ))
	}
	_, err := io.WriteString(w, svg)
	return err
}
