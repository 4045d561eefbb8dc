package chart

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/homedash/internal/metric"
)

var tempBand = metric.Range{Min: 18, Max: 26}

func TestSparkline(t *testing.T) {
	values := []float64{16, 18, 20, 22, 24, 26, 28, 30}
	lo, hi := Bounds(values, tempBand)
	result := RenderSparkline(values, 20, lo, hi, tempBand)
	if len(result) == 0 {
		t.Error("sparkline should not be empty")
	}
	if w := lipgloss.Width(result); w != 20 {
		t.Errorf("width = %d, want 20", w)
	}
	t.Logf("Sparkline: %s", result)
}

func TestSparklineEmpty(t *testing.T) {
	result := RenderSparkline(nil, 10, 0, 1, tempBand)
	if !strings.Contains(result, "╌") {
		t.Error("empty sparkline should draw the placeholder line")
	}
}

func TestSparklineLongHistory(t *testing.T) {
	values := make([]float64, 720)
	for i := range values {
		values[i] = 20 + float64(i%10)
	}
	result := RenderSparkline(values, 40, 18, 30, tempBand)
	if w := lipgloss.Width(result); w != 40 {
		t.Errorf("width = %d, want 40", w)
	}
}

func TestResample(t *testing.T) {
	got := Resample([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Errorf("Resample = %v, want [2 6]", got)
	}
	short := []float64{1, 2}
	if got := Resample(short, 5); len(got) != 2 {
		t.Errorf("short input resampled to %v", got)
	}
}

func TestBounds(t *testing.T) {
	lo, hi := Bounds([]float64{22, 30}, tempBand)
	if lo != 18 || hi != 30 {
		t.Errorf("Bounds = %v, %v; want 18, 30", lo, hi)
	}
	lo, hi = Bounds(nil, metric.Range{Min: 5, Max: 5})
	if hi-lo != 1 {
		t.Errorf("flat bounds = %v, %v", lo, hi)
	}
}

func TestTimeline(t *testing.T) {
	labels := []string{"12:00", "12:01", "12:02", "12:03", "12:04", "12:05", "12:06", "12:07"}
	result := RenderTimeline(labels, 20)
	if !strings.Contains(result, "12:00") {
		t.Errorf("timeline %q missing first label", result)
	}
	if w := lipgloss.Width(result); w != 20 {
		t.Errorf("width = %d, want 20", w)
	}
}

func TestTierColor(t *testing.T) {
	if TierColor(metric.TierGood) == TierColor(metric.TierHigh) {
		t.Error("good and high tiers share a colour")
	}
}

func TestGauge(t *testing.T) {
	result := RenderGauge(50, 10)
	if w := lipgloss.Width(result); w != 10 {
		t.Errorf("width = %d, want 10", w)
	}
	if got := strings.Count(result, "█"); got != 5 {
		t.Errorf("filled cells = %d, want 5", got)
	}
}
