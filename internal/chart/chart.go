// Package chart provides sparkline rendering with tier-coloured blocks,
// timeline labels, band scale bars and gauge bars.
package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/homedash/internal/metric"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// TierColor returns the colour used for values in tier t.
func TierColor(t metric.Tier) lipgloss.Color {
	switch t {
	case metric.TierLow:
		return lipgloss.Color("81") // cyan
	case metric.TierHigh:
		return lipgloss.Color("208") // orange
	default:
		return lipgloss.Color("78") // soft green
	}
}

func tierOf(v float64, band metric.Range) metric.Tier {
	return metric.Classify(v, band, metric.Messages{}).Tier
}

// Bounds returns a display scale for values: their min and max, widened so
// the band's edges stay visible and a flat series still has some height.
func Bounds(values []float64, band metric.Range) (lo, hi float64) {
	lo, hi = band.Min, band.Max
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1 {
		hi = lo + 1
	}
	return lo, hi
}

// RenderSparkline renders values scaled to [lo, hi], newest on the right.
// Each block is coloured by the tier its value falls in within band.
func RenderSparkline(values []float64, width int, lo, hi float64, band metric.Range) string {
	if width <= 0 {
		return ""
	}

	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	if len(values) == 0 {
		return dim.Render(strings.Repeat("╌", width))
	}

	values = Resample(values, width)
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	var sb strings.Builder
	sb.WriteString(dim.Render(strings.Repeat("╌", width-len(values))))

	for _, v := range values {
		norm := math.Max(0, math.Min(1, (v-lo)/span))
		idx := int(norm * 7)
		if idx > 7 {
			idx = 7
		}
		style := lipgloss.NewStyle().Foreground(TierColor(tierOf(v, band)))
		sb.WriteString(style.Render(string(sparkBlocks[idx])))
	}

	return sb.String()
}

// Resample shrinks values to at most width entries by averaging adjacent
// buckets. Shorter inputs are returned unchanged. A 30 day history holds
// far more points than a terminal has columns.
func Resample(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		return values
	}
	out := make([]float64, width)
	step := float64(len(values)) / float64(width)
	for i := range out {
		from := int(float64(i) * step)
		to := int(float64(i+1) * step)
		if to > len(values) {
			to = len(values)
		}
		if to <= from {
			to = from + 1
		}
		sum := 0.0
		for _, v := range values[from:to] {
			sum += v
		}
		out[i] = sum / float64(to-from)
	}
	return out
}

// RenderTimeline renders point labels under a sparkline of the same width,
// spaced so that no two labels touch.
func RenderTimeline(labels []string, width int) string {
	if len(labels) == 0 || width <= 0 {
		return ""
	}

	n := len(labels)
	cols := n
	if cols > width {
		cols = width
	}
	padLen := width - cols

	line := make([]rune, width)
	for i := range line {
		line[i] = ' '
	}

	lastEnd := -1
	for col := 0; col < cols; col++ {
		idx := col
		if n > width {
			idx = col * n / width
		}
		label := labels[idx]
		if label == "" || (idx > 0 && labels[idx-1] == label) {
			continue
		}
		start := padLen + col
		end := start + len([]rune(label))
		if end > width || start <= lastEnd+1 {
			continue
		}
		for j, ch := range []rune(label) {
			line[start+j] = ch
		}
		lastEnd = end
	}

	tickStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	return tickStyle.Render(string(line))
}

// RenderBandScale renders a scale bar showing the current value against the
// edges of its band.
func RenderBandScale(current, lo, hi float64, band metric.Range, width int) string {
	if width <= 0 {
		return ""
	}

	span := hi - lo
	if span <= 0 {
		span = 1
	}
	pos := func(v float64) int {
		p := int(float64(width-1) * (v - lo) / span)
		return max(0, min(width-1, p))
	}

	minPos, maxPos, curPos := pos(band.Min), pos(band.Max), pos(current)
	edge := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dot := lipgloss.NewStyle().Foreground(lipgloss.Color("236"))

	var sb strings.Builder
	for i := 0; i < width; i++ {
		switch i {
		case curPos:
			style := lipgloss.NewStyle().Foreground(TierColor(tierOf(current, band))).Bold(true)
			sb.WriteString(style.Render("◆"))
		case minPos, maxPos:
			sb.WriteString(edge.Render("▪"))
		default:
			sb.WriteString(dot.Render("·"))
		}
	}
	return sb.String()
}

// RenderGauge renders a horizontal fill bar for a 0-100 percentage.
func RenderGauge(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	pct = math.Max(0, math.Min(100, pct))
	filled := int(math.Round(pct / 100 * float64(width)))

	color := lipgloss.Color("75")
	if pct >= 90 {
		color = lipgloss.Color("208")
	}
	full := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	empty := lipgloss.NewStyle().Foreground(lipgloss.Color("236")).Render(strings.Repeat("░", width-filled))
	return full + empty
}

// RenderValue renders a value with its unit in the colour of its tier.
func RenderValue(v float64, unit string, t metric.Tier) string {
	s := fmt.Sprintf("%7.1f %s", v, unit)
	style := lipgloss.NewStyle().Foreground(TierColor(t))
	if t != "" && t != metric.TierGood {
		style = style.Bold(true)
	}
	return style.Render(s)
}
