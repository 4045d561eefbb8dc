package sensor

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"
)

func TestReadingUnmarshal(t *testing.T) {
	payload := `{"temperature":22.5,"humidity":48.1,"air_quality":87,"energy_usage":1180.4,
		"water_usage":152.3,"light_level":64.0,"timestamp":"2026-02-21T14:30:05.123456"}`

	var r Reading
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if r.Temperature != 22.5 || r.AirQuality != 87 || r.EnergyUsage != 1180.4 {
		t.Errorf("fields: got %+v", r)
	}
	want := time.Date(2026, 2, 21, 14, 30, 5, 123456000, time.Local)
	if !r.Timestamp.Equal(want) {
		t.Errorf("timestamp: got %v, want %v", r.Timestamp, want)
	}
	if err := r.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestReadingEmptyObject(t *testing.T) {
	var r Reading
	if err := json.Unmarshal([]byte(`{}`), &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !r.IsEmpty() {
		t.Errorf("expected empty reading, got %+v", r)
	}
}

func TestReadingValidate(t *testing.T) {
	now := time.Now()
	good := Reading{Temperature: 22, Humidity: 50, AirQuality: 90, EnergyUsage: 1000, WaterUsage: 150, LightLevel: 60, Timestamp: now}

	tests := []struct {
		name   string
		mutate func(*Reading)
		ok     bool
	}{
		{"valid", func(*Reading) {}, true},
		{"freezing is fine", func(r *Reading) { r.Temperature = -4 }, true},
		{"negative energy", func(r *Reading) { r.EnergyUsage = -1 }, false},
		{"negative water", func(r *Reading) { r.WaterUsage = -0.5 }, false},
		{"air quality over 100", func(r *Reading) { r.AirQuality = 101 }, false},
		{"NaN humidity", func(r *Reading) { r.Humidity = math.NaN() }, false},
		{"infinite light", func(r *Reading) { r.LightLevel = math.Inf(1) }, false},
		{"no timestamp", func(r *Reading) { r.Timestamp = time.Time{} }, false},
	}
	for _, tt := range tests {
		r := good
		tt.mutate(&r)
		err := r.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("%s: expected error", tt.name)
			} else if !errors.Is(err, ErrInvalidReading) {
				t.Errorf("%s: error %v does not wrap ErrInvalidReading", tt.name, err)
			}
		}
	}
}

func TestSuggestionUnmarshal(t *testing.T) {
	payload := `[{"message":"Air quality is poor.","category":"health","priority":3},
		{"id":7,"message":"x","category":"garden","priority":1,"timestamp":"2026-02-21T10:00:00"}]`

	var got []Suggestion
	if err := json.Unmarshal([]byte(payload), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
	if got[0].Category != CategoryHealth || got[0].Priority != PriorityHigh || !got[0].Timestamp.IsZero() {
		t.Errorf("first: got %+v", got[0])
	}
	if got[1].Category != CategoryOther || got[1].ID != 7 || got[1].Timestamp.IsZero() {
		t.Errorf("second: got %+v", got[1])
	}
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in   string
		want TimeRange
		ok   bool
	}{
		{"24h", Range24h, true},
		{"7d", Range7d, true},
		{"168", Range7d, true},
		{"30D", Range30d, true},
		{"720h", Range30d, true},
		{"12h", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseTimeRange(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseTimeRange(%q) = %v, %v; want %v (ok=%v)", tt.in, got, err, tt.want, tt.ok)
		}
	}
}

func TestQuantityLabel(t *testing.T) {
	tests := []struct {
		q    Quantity
		want string
	}{
		{Temperature, "Temperature"},
		{AirQuality, "Air Quality"},
		{LightLevel, "Light"},
		{Quantity("pressure"), "Sensor"},
	}
	for _, tt := range tests {
		if got := tt.q.Label(); got != tt.want {
			t.Errorf("%q.Label() = %q, want %q", tt.q, got, tt.want)
		}
	}
}

func TestSimulatorRanges(t *testing.T) {
	fixed := time.Date(2026, 2, 21, 14, 0, 0, 0, time.Local)
	sim := NewSimulator(rand.New(rand.NewPCG(1, 2)), func() time.Time { return fixed })

	for i := 0; i < 500; i++ {
		r := sim.Next()
		if !r.Timestamp.Equal(fixed) {
			t.Fatalf("timestamp: got %v, want %v", r.Timestamp, fixed)
		}
		for _, q := range AllQuantities {
			lo, hi, _ := SimulatedRange(q)
			if v := r.Value(q); v < lo || v > hi {
				t.Fatalf("%s = %f outside [%f, %f]", q, v, lo, hi)
			}
		}
		if err := r.Validate(); err != nil {
			t.Fatalf("simulated reading invalid: %v", err)
		}
	}
}
