package sensor

import (
	"math/rand/v2"
	"time"
)

// simulatedRanges lists the uniform [min, max) range each synthetic field
// is drawn from.
var simulatedRanges = []struct {
	q        Quantity
	min, max float64
}{
	{Temperature, 20, 28},
	{Humidity, 40, 70},
	{AirQuality, 60, 100},
	{EnergyUsage, 800, 1400},
	{WaterUsage, 100, 200},
	{LightLevel, 30, 100},
}

// Simulator produces synthetic readings that stand in for the push channel
// while the dashboard is in simulated mode.
type Simulator struct {
	rng *rand.Rand
	now func() time.Time
}

// NewSimulator returns a simulator drawing from rng. A nil rng uses a
// randomly seeded source; a nil now uses time.Now.
func NewSimulator(rng *rand.Rand, now func() time.Time) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if now == nil {
		now = time.Now
	}
	return &Simulator{rng: rng, now: now}
}

// Next draws every field independently and stamps the reading with now.
func (s *Simulator) Next() Reading {
	r := Reading{Timestamp: s.now()}
	for _, sr := range simulatedRanges {
		v := sr.min + s.rng.Float64()*(sr.max-sr.min)
		switch sr.q {
		case Temperature:
			r.Temperature = v
		case Humidity:
			r.Humidity = v
		case AirQuality:
			r.AirQuality = v
		case EnergyUsage:
			r.EnergyUsage = v
		case WaterUsage:
			r.WaterUsage = v
		case LightLevel:
			r.LightLevel = v
		}
	}
	return r
}

// SimulatedRange returns the bounds a synthetic value of q is drawn from.
func SimulatedRange(q Quantity) (min, max float64, ok bool) {
	for _, sr := range simulatedRanges {
		if sr.q == q {
			return sr.min, sr.max, true
		}
	}
	return 0, 0, false
}
