package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/luki/homedash/internal/dashboard"
	"github.com/luki/homedash/internal/history"
	"github.com/luki/homedash/internal/sensor"
)

type fakeController struct {
	mu      sync.Mutex
	calls   []string
	toggled []int
	ranges  []sensor.TimeRange
	err     error
}

func (f *fakeController) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeController) ToggleMode() error { return f.record("mode") }
func (f *fakeController) Refresh() error { return f.record("refresh") }

func (f *fakeController) SetTimeRange(r sensor.TimeRange) error {
	f.ranges = append(f.ranges, r)
	return f.record("range")
}

func (f *fakeController) ToggleDevice(id int) error {
	f.toggled = append(f.toggled, id)
	return f.record("toggle")
}

func sampleViewModel() dashboard.ViewModel {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	var pts []history.Point
	for i := 0; i < 12; i++ {
		pts = append(pts, history.NewPoint(sensor.Reading{
			Temperature: 20 + float64(i%6),
			Humidity:    45 + float64(i),
			AirQuality:  75 + float64(i),
			EnergyUsage: 900 + float64(i*40),
			WaterUsage:  150,
			LightLevel:  70,
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
	b := history.NewBuffer(0)
	b.ReplaceAll(pts)
	last := pts[len(pts)-1].Reading

	return dashboard.ViewModel{
		Mode:    dashboard.ModeSimulated,
		Current: currentViewFor(last),
		Chart: dashboard.ChartView{
			Range:       sensor.Range7d,
			Labels:      b.Labels(),
			Temperature: b.Series(sensor.Temperature),
			Humidity:    b.Series(sensor.Humidity),
			AirQuality:  b.Series(sensor.AirQuality),
			Energy:      b.Series(sensor.EnergyUsage),
			Points:      b.Snapshot(),
		},
		Devices: []sensor.Device{
			{ID: 4, Name: "Living Room Lamp", Type: "light", Status: sensor.StatusOn, EnergyConsumption: 60},
			{ID: 9, Name: "Heat Pump", Type: "hvac", Status: sensor.StatusOff},
		},
		Suggestions: []sensor.Suggestion{
			{Message: "Lower the thermostat", Category: sensor.CategoryEnergy, Priority: sensor.PriorityHigh, Timestamp: base},
		},
		UpdatedAt: base,
	}
}

// currentViewFor mirrors what the controller sends for a reading.
func currentViewFor(r sensor.Reading) dashboard.CurrentView {
	cv := dashboard.CurrentView{Valid: true, Timestamp: r.Timestamp, Efficiency: 87}
	for _, q := range sensor.AllQuantities {
		cv.Quantities = append(cv.Quantities, dashboard.QuantityView{
			Quantity: q, Label: q.Label(), Unit: q.Unit(), Value: r.Value(q), Tier: "good", Status: "ok",
		})
	}
	return cv
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return mm, cmd
}

func TestViewRenders(t *testing.T) {
	m := New(&fakeController{})
	if got := m.View(); !strings.Contains(got, "Initializing") {
		t.Errorf("view before size = %q", got)
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 80})
	m, _ = update(t, m, viewModelMsg(sampleViewModel()))
	m, _ = update(t, m, pulseMsg{Quantity: sensor.Humidity, On: true})

	view := m.View()
	for _, want := range []string{"HOMEDASH", "SIMULATED", "Temperature", "Living Room Lamp", "Lower the thermostat", "7d"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	t.Logf("\n%s", view)
}

func TestViewNarrowAndEmpty(t *testing.T) {
	m := New(&fakeController{})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 20, Height: 3})
	m, _ = update(t, m, viewModelMsg(dashboard.ViewModel{Loading: true}))
	if view := m.View(); view == "" {
		t.Error("empty view")
	}
}

func TestKeysDriveController(t *testing.T) {
	ctrl := &fakeController{}
	m := New(ctrl)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m, _ = update(t, m, viewModelMsg(sampleViewModel()))

	_, cmd := update(t, m, runeKey('m'))
	if cmd == nil || cmd() != nil {
		t.Fatal("mode key should issue a command that succeeds")
	}

	_, cmd = update(t, m, runeKey('3'))
	cmd()
	if _, cmd = update(t, m, runeKey('2')); cmd != nil {
		t.Error("selecting the active range should be a no-op")
	}

	m, _ = update(t, m, runeKey('j'))
	m, _ = update(t, m, runeKey('j'))
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1 (clamped to last device)", m.cursor)
	}
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	cmd()

	if len(ctrl.ranges) != 1 || ctrl.ranges[0] != sensor.Range30d {
		t.Errorf("ranges = %v, want [30d]", ctrl.ranges)
	}
	if len(ctrl.toggled) != 1 || ctrl.toggled[0] != 9 {
		t.Errorf("toggled = %v, want [9]", ctrl.toggled)
	}

	_, cmd = update(t, m, runeKey('q'))
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestCommandErrorShown(t *testing.T) {
	ctrl := &fakeController{err: errors.New("dashboard closed")}
	m := New(ctrl)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	_, cmd := update(t, m, runeKey('r'))
	m, _ = update(t, m, cmd())
	if !strings.Contains(m.View(), "dashboard closed") {
		t.Error("command error not rendered")
	}
}

func TestSinkCoalesces(t *testing.T) {
	s := NewSink()
	s.Render(dashboard.ViewModel{LastError: "first"})
	s.Render(dashboard.ViewModel{LastError: "second"})
	for i := 0; i < 100; i++ {
		s.Pulse(dashboard.PulseEvent{Quantity: sensor.Temperature, On: true})
	}

	ctx, cancel := context.WithCancel(context.Background())
	var (
		mu   sync.Mutex
		msgs []tea.Msg
	)
	done := make(chan struct{})
	go func() {
		s.Pump(ctx, func(msg tea.Msg) {
			mu.Lock()
			msgs = append(msgs, msg)
			mu.Unlock()
		})
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(msgs)
		mu.Unlock()
		if n == 65 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	var frames, pulses int
	for _, msg := range msgs {
		switch msg := msg.(type) {
		case viewModelMsg:
			frames++
			if msg.LastError != "second" {
				t.Errorf("frame = %q, want the newest", msg.LastError)
			}
		case pulseMsg:
			pulses++
		}
	}
	if frames != 1 || pulses != 64 {
		t.Errorf("frames = %d, pulses = %d; want 1 and 64", frames, pulses)
	}
}
