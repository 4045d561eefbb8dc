// Package sensor defines the smart-home data shapes exchanged with the data
// provider and the push channel: environment readings, devices and
// suggestions, plus the table of monitored quantities.
package sensor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidReading is returned by Reading.Validate.
var ErrInvalidReading = errors.New("invalid reading")

// Reading is a single environment sample for the whole home.
type Reading struct {
	Temperature float64   `json:"temperature"`  // °C
	Humidity    float64   `json:"humidity"`     // %
	AirQuality  float64   `json:"air_quality"`  // 0-100
	EnergyUsage float64   `json:"energy_usage"` // W
	WaterUsage  float64   `json:"water_usage"`  // L
	LightLevel  float64   `json:"light_level"`  // lux
	Timestamp   time.Time `json:"timestamp"`
}

// Value returns the field of r that holds quantity q.
func (r Reading) Value(q Quantity) float64 {
	switch q {
	case Temperature:
		return r.Temperature
	case Humidity:
		return r.Humidity
	case AirQuality:
		return r.AirQuality
	case EnergyUsage:
		return r.EnergyUsage
	case WaterUsage:
		return r.WaterUsage
	case LightLevel:
		return r.LightLevel
	}
	return 0
}

// Validate checks that every field is finite and inside its physical
// domain. Temperature may be below zero; everything else may not.
func (r Reading) Validate() error {
	var errs []error
	for _, q := range AllQuantities {
		v := r.Value(q)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%s is not finite", q))
			continue
		}
		if q != Temperature && v < 0 {
			errs = append(errs, fmt.Errorf("%s is negative (%g)", q, v))
		}
	}
	if r.AirQuality > 100 {
		errs = append(errs, fmt.Errorf("air_quality above 100 (%g)", r.AirQuality))
	}
	if r.Humidity > 100 {
		errs = append(errs, fmt.Errorf("humidity above 100 (%g)", r.Humidity))
	}
	if r.Timestamp.IsZero() {
		errs = append(errs, errors.New("timestamp missing"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidReading, errors.Join(errs...))
	}
	return nil
}

// IsEmpty reports whether r carries no data at all. The provider answers
// "{}" for current_data before the first sample is stored.
func (r Reading) IsEmpty() bool {
	return r == Reading{}
}

// UnmarshalJSON accepts the server's timestamps, which are ISO-8601 with or
// without a zone offset.
func (r *Reading) UnmarshalJSON(data []byte) error {
	type alias Reading
	aux := struct {
		alias
		Timestamp string `json:"timestamp"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Reading(aux.alias)
	r.Timestamp = time.Time{}
	if aux.Timestamp == "" {
		return nil
	}
	t, err := ParseTimestamp(aux.Timestamp)
	if err != nil {
		return err
	}
	r.Timestamp = t
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses the timestamp formats seen on the wire. Values
// without a zone are interpreted in local time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for i, layout := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if i == 0 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
