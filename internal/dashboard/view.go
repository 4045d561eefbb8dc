package dashboard

import (
	"time"

	"github.com/luki/homedash/internal/history"
	"github.com/luki/homedash/internal/metric"
	"github.com/luki/homedash/internal/sensor"
)

// Mode selects where real-time readings come from.
type Mode int

const (
	ModeLive Mode = iota
	ModeSimulated
)

func (m Mode) String() string {
	if m == ModeSimulated {
		return "simulated"
	}
	return "live"
}

// QuantityView is one value card.
type QuantityView struct {
	Quantity sensor.Quantity
	Label    string
	Unit     string
	Value    float64
	Tier     metric.Tier // empty for gauges
	Status   string      // tier message, empty for gauges
	Gauge    float64     // fill %, gauges only
}

// CurrentView is the current-value panel.
type CurrentView struct {
	Valid      bool
	Timestamp  time.Time
	Quantities []QuantityView
	Efficiency int
}

// Lookup returns the card for q.
func (c CurrentView) Lookup(q sensor.Quantity) (QuantityView, bool) {
	for _, v := range c.Quantities {
		if v.Quantity == q {
			return v, true
		}
	}
	return QuantityView{}, false
}

// ChartView is the line chart: one label per point and four series.
type ChartView struct {
	Range       sensor.TimeRange
	Labels      []string
	Temperature []float64
	Humidity    []float64
	AirQuality  []float64
	Energy      []float64
	Points      []history.Point
}

// ViewModel is everything the rendering sink needs for one frame.
type ViewModel struct {
	Mode        Mode
	Loading     bool
	Current     CurrentView
	Chart       ChartView
	Devices     []sensor.Device
	Suggestions []sensor.Suggestion
	LastError   string
	UpdatedAt   time.Time
}

// PulseEvent marks a value card as just updated (On) or clears the mark.
type PulseEvent struct {
	Quantity sensor.Quantity
	On       bool
}

// Sink consumes view-models. Calls happen on the controller goroutine and
// must not block on the controller.
type Sink interface {
	Render(vm ViewModel)
	Pulse(ev PulseEvent)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Render(ViewModel) {}
func (NopSink) Pulse(PulseEvent) {}

func currentView(r sensor.Reading) CurrentView {
	ev := metric.Evaluate(r)
	cv := CurrentView{Valid: true, Timestamp: r.Timestamp, Efficiency: ev.Efficiency}
	for _, q := range sensor.AllQuantities {
		qv := QuantityView{Quantity: q, Label: q.Label(), Unit: q.Unit(), Value: r.Value(q)}
		if st, ok := ev.Statuses[q]; ok {
			qv.Tier = st.Tier
			qv.Status = st.Label
		}
		switch q {
		case sensor.WaterUsage:
			qv.Gauge = ev.Water
		case sensor.LightLevel:
			qv.Gauge = ev.Light
		}
		cv.Quantities = append(cv.Quantities, qv)
	}
	return cv
}

func chartView(b *history.Buffer, r sensor.TimeRange) ChartView {
	return ChartView{
		Range:       r,
		Labels:      b.Labels(),
		Temperature: b.Series(sensor.Temperature),
		Humidity:    b.Series(sensor.Humidity),
		AirQuality:  b.Series(sensor.AirQuality),
		Energy:      b.Series(sensor.EnergyUsage),
		Points:      b.Snapshot(),
	}
}
