package sensor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DeviceStatus is the power state of a controllable device.
type DeviceStatus string

const (
	StatusOn  DeviceStatus = "on"
	StatusOff DeviceStatus = "off"
)

// Toggled returns the opposite state.
func (s DeviceStatus) Toggled() DeviceStatus {
	if s == StatusOn {
		return StatusOff
	}
	return StatusOn
}

// Device is a controllable appliance as reported by the provider. The
// provider owns the authoritative state; clients hold a cached copy.
type Device struct {
	ID                int          `json:"id"`
	Name              string       `json:"name"`
	Type              string       `json:"type,omitempty"` // light, hvac, thermostat, appliance, water, security
	Status            DeviceStatus `json:"status"`
	EnergyConsumption float64      `json:"energy_consumption"` // W
}

// On reports whether the device is switched on.
func (d Device) On() bool { return d.Status == StatusOn }

// Category groups advisory messages.
type Category string

const (
	CategoryEnergy  Category = "energy"
	CategoryHealth  Category = "health"
	CategoryComfort Category = "comfort"
	CategoryOther   Category = "other"
)

// NormalizeCategory maps unknown categories to CategoryOther.
func NormalizeCategory(s string) Category {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryEnergy, CategoryHealth, CategoryComfort:
		return c
	}
	return CategoryOther
}

// Priority only drives presentation; it never reorders the queue.
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// Suggestion is an advisory message produced by the rule engine.
type Suggestion struct {
	ID        int       `json:"id,omitempty"`
	Message   string    `json:"message"`
	Category  Category  `json:"category"`
	Priority  Priority  `json:"priority"`
	Timestamp time.Time `json:"timestamp"`
}

// UnmarshalJSON tolerates zone-less timestamps, missing timestamps (pushed
// suggestions carry none) and unknown categories.
func (s *Suggestion) UnmarshalJSON(data []byte) error {
	type alias Suggestion
	aux := struct {
		alias
		Category  string `json:"category"`
		Timestamp string `json:"timestamp"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Suggestion(aux.alias)
	s.Category = NormalizeCategory(aux.Category)
	s.Timestamp = time.Time{}
	if aux.Timestamp != "" {
		t, err := ParseTimestamp(aux.Timestamp)
		if err != nil {
			return err
		}
		s.Timestamp = t
	}
	return nil
}

// ErrUnknownRange is returned for a window other than 24h, 7d or 30d.
var ErrUnknownRange = errors.New("unknown time range")

// TimeRange is the chart's historical window.
type TimeRange int

const (
	Range24h TimeRange = 24
	Range7d  TimeRange = 168
	Range30d TimeRange = 720
)

// TimeRanges lists the selectable windows in display order.
var TimeRanges = []TimeRange{Range24h, Range7d, Range30d}

// Hours returns the window length in hours.
func (r TimeRange) Hours() int { return int(r) }

// Valid reports whether r is one of the selectable windows.
func (r TimeRange) Valid() bool {
	for _, v := range TimeRanges {
		if v == r {
			return true
		}
	}
	return false
}

func (r TimeRange) String() string {
	switch r {
	case Range24h:
		return "24h"
	case Range7d:
		return "7d"
	case Range30d:
		return "30d"
	}
	return fmt.Sprintf("%dh", int(r))
}

// ParseTimeRange accepts "24h", "7d", "30d" or a bare hour count.
func ParseTimeRange(s string) (TimeRange, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, r := range TimeRanges {
		if s == r.String() || s == fmt.Sprintf("%d", int(r)) || s == fmt.Sprintf("%dh", int(r)) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w %q (want 24h, 7d or 30d)", ErrUnknownRange, s)
}
