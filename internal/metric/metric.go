// Package metric derives status tiers, gauge percentages and the composite
// efficiency score from a reading. Everything here is pure.
package metric

import (
	"math"

	"github.com/luki/homedash/internal/sensor"
)

// Tier classifies a value against its comfortable range.
type Tier string

const (
	TierLow  Tier = "low"
	TierGood Tier = "good"
	TierHigh Tier = "high"
)

// Range is an inclusive [Min, Max] band.
type Range struct {
	Min float64
	Max float64
}

// Messages are the labels shown for the low, good and high tiers.
type Messages [3]string

// Status is a classification result.
type Status struct {
	Tier  Tier
	Label string
}

// Classify places value below, inside or above r. The upper bound is
// inclusive.
func Classify(value float64, r Range, msgs Messages) Status {
	switch {
	case value < r.Min:
		return Status{Tier: TierLow, Label: msgs[0]}
	case value <= r.Max:
		return Status{Tier: TierGood, Label: msgs[1]}
	default:
		return Status{Tier: TierHigh, Label: msgs[2]}
	}
}

// Thresholds holds the classification band for one monitored quantity.
type Thresholds struct {
	Quantity sensor.Quantity
	Range    Range
	Messages Messages
}

// DefaultThresholds are the bands for the four monitored quantities.
var DefaultThresholds = []Thresholds{
	{sensor.Temperature, Range{18, 26}, Messages{"Too cold", "Normal range", "Too warm"}},
	{sensor.Humidity, Range{40, 60}, Messages{"Too dry", "Optimal level", "Too humid"}},
	{sensor.AirQuality, Range{70, 100}, Messages{"Poor quality", "Good quality", "Excellent"}},
	{sensor.EnergyUsage, Range{0, 1200}, Messages{"Low usage", "Moderate usage", "High usage"}},
}

// ThresholdsFor returns the band for q.
func ThresholdsFor(q sensor.Quantity) (Thresholds, bool) {
	for _, t := range DefaultThresholds {
		if t.Quantity == q {
			return t, true
		}
	}
	return Thresholds{}, false
}

// EfficiencyScore starts at 100 and subtracts independent penalties for
// temperature outside 20-24°C, energy above 1200 W, air quality below 80
// and water above 180 L. The sum is clamped to [0, 100] before rounding.
func EfficiencyScore(r sensor.Reading) int {
	penalty := 0.0
	if r.Temperature < 20 || r.Temperature > 24 {
		penalty += math.Abs(r.Temperature-22) * 5
	}
	if r.EnergyUsage > 1200 {
		penalty += (r.EnergyUsage - 1200) / 20
	}
	if r.AirQuality < 80 {
		penalty += (80 - r.AirQuality) / 2
	}
	if r.WaterUsage > 180 {
		penalty += (r.WaterUsage - 180) / 5
	}
	score := math.Max(0, math.Min(100, 100-penalty))
	if math.IsNaN(score) {
		return 0
	}
	return int(math.Round(score))
}

// gaugeScale is the value that fills a gauge bar to 100%.
var gaugeScale = map[sensor.Quantity]float64{
	sensor.WaterUsage: 200,
	sensor.LightLevel: 100,
}

// GaugePercent maps a gauge quantity to a 0-100 fill level.
func GaugePercent(q sensor.Quantity, v float64) float64 {
	scale, ok := gaugeScale[q]
	if !ok || scale <= 0 {
		return 0
	}
	return math.Max(0, math.Min(v/scale*100, 100))
}

// Evaluation is everything derived from a single reading.
type Evaluation struct {
	Statuses   map[sensor.Quantity]Status
	Water      float64 // gauge %
	Light      float64 // gauge %
	Efficiency int
}

// Evaluate classifies each monitored quantity and computes the gauges and
// efficiency score.
func Evaluate(r sensor.Reading) Evaluation {
	ev := Evaluation{
		Statuses:   make(map[sensor.Quantity]Status, len(DefaultThresholds)),
		Water:      GaugePercent(sensor.WaterUsage, r.WaterUsage),
		Light:      GaugePercent(sensor.LightLevel, r.LightLevel),
		Efficiency: EfficiencyScore(r),
	}
	for _, t := range DefaultThresholds {
		ev.Statuses[t.Quantity] = Classify(r.Value(t.Quantity), t.Range, t.Messages)
	}
	return ev
}
