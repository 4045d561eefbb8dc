// Package history provides the chart's rolling buffer: a sequence of
// labelled readings that is either replaced wholesale by a historical
// load or fed one point at a time by real-time ingestion.
package history

import (
	"math"
	"time"

	"github.com/luki/homedash/internal/sensor"
)

// DefaultCapacity is the real-time window size.
const DefaultCapacity = 20

// LabelLayout formats point labels on the chart's time axis.
const LabelLayout = "15:04"

// Point is a single labelled reading in the buffer.
type Point struct {
	Label   string
	Reading sensor.Reading
}

// Time returns the reading timestamp.
func (p Point) Time() time.Time { return p.Reading.Timestamp }

// NewPoint labels r with its local wall-clock time.
func NewPoint(r sensor.Reading) Point {
	return Point{Label: r.Timestamp.Local().Format(LabelLayout), Reading: r}
}

// PointsFrom labels a historical series, keeping its order.
func PointsFrom(series []sensor.Reading) []Point {
	pts := make([]Point, len(series))
	for i, r := range series {
		pts[i] = NewPoint(r)
	}
	return pts
}

// Buffer holds the chart window. ReplaceAll installs a series of any
// length; Append keeps at most Max points by evicting the oldest.
type Buffer struct {
	Points []Point
	Max    int // real-time capacity
}

// NewBuffer creates an empty buffer with the given real-time capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		Points: make([]Point, 0, capacity),
		Max:    capacity,
	}
}

// ReplaceAll discards the current contents and installs series verbatim.
// No bound is applied: a 30-day load may hold hundreds of points.
func (b *Buffer) ReplaceAll(series []Point) {
	b.Points = make([]Point, len(series))
	copy(b.Points, series)
}

// Append adds p at the tail and evicts from the head until the buffer
// holds at most Max points.
func (b *Buffer) Append(p Point) {
	b.Points = append(b.Points, p)
	if over := len(b.Points) - b.Max; over > 0 {
		kept := make([]Point, b.Max, b.Max+1)
		copy(kept, b.Points[over:])
		b.Points = kept
	}
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.Points = b.Points[:0]
}

// Len returns the number of points held.
func (b *Buffer) Len() int { return len(b.Points) }

// Snapshot returns a copy of every point.
func (b *Buffer) Snapshot() []Point {
	out := make([]Point, len(b.Points))
	copy(out, b.Points)
	return out
}

// Labels returns the time-axis labels in order.
func (b *Buffer) Labels() []string {
	out := make([]string, len(b.Points))
	for i, p := range b.Points {
		out[i] = p.Label
	}
	return out
}

// Series returns the values of q in order.
func (b *Buffer) Series(q sensor.Quantity) []float64 {
	out := make([]float64, len(b.Points))
	for i, p := range b.Points {
		out[i] = p.Reading.Value(q)
	}
	return out
}

// Stats summarises one quantity over the window.
type Stats struct {
	Min  float64
	Peak float64
	Avg  float64
	N    int
}

// Stats computes min/peak/avg of q across the buffer.
func (b *Buffer) Stats(q sensor.Quantity) Stats {
	return StatsOf(b.Points, q)
}

// StatsOf computes min/peak/avg of q across pts.
func StatsOf(pts []Point, q sensor.Quantity) Stats {
	if len(pts) == 0 {
		return Stats{}
	}
	s := Stats{Min: math.MaxFloat64, Peak: -math.MaxFloat64, N: len(pts)}
	sum := 0.0
	for _, p := range pts {
		v := p.Reading.Value(q)
		if v < s.Min {
			s.Min = v
		}
		if v > s.Peak {
			s.Peak = v
		}
		sum += v
	}
	s.Avg = sum / float64(len(pts))
	return s
}
