// Package dashboard is the telemetry reconciler behind the UI. A single
// goroutine owns all dashboard state. Push events, timers, provider
// responses and user commands reach it as closures run on that goroutine.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/luki/homedash/internal/history"
	"github.com/luki/homedash/internal/logging"
	"github.com/luki/homedash/internal/metric"
	"github.com/luki/homedash/internal/metrics"
	"github.com/luki/homedash/internal/provider"
	"github.com/luki/homedash/internal/push"
	"github.com/luki/homedash/internal/sensor"
	"github.com/luki/homedash/internal/suggest"
)

// ErrClosed is returned by commands issued after the controller stopped.
var ErrClosed = errors.New("dashboard closed")

// Options configures a Controller. Zero durations and sizes fall back to
// the defaults below.
type Options struct {
	Provider  provider.DataProvider
	Sink      Sink
	Events    <-chan push.Event
	Simulator *sensor.Simulator
	Metrics   *metrics.Metrics
	Logger    *slog.Logger

	RefreshInterval   time.Duration
	SimulatorInterval time.Duration
	PulseDuration     time.Duration
	FetchTimeout      time.Duration

	BufferSize     int
	SuggestionsMax int
	TimeRange      sensor.TimeRange
	Mode           Mode
}

const (
	defaultRefreshInterval   = 30 * time.Second
	defaultSimulatorInterval = 3 * time.Second
	defaultPulseDuration     = 500 * time.Millisecond
	defaultFetchTimeout      = 10 * time.Second

	// simAdviseEvery is how many simulated readings pass between advice
	// batches.
	simAdviseEvery = 5
)

// Controller owns the dashboard state.
type Controller struct {
	provider provider.DataProvider
	sink     Sink
	events   <-chan push.Event
	sim      *sensor.Simulator
	metrics  *metrics.Metrics
	log      *slog.Logger

	refreshInterval   time.Duration
	simulatorInterval time.Duration
	pulseDuration     time.Duration
	fetchTimeout      time.Duration

	ops       chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	started   chan struct{}

	// Everything below is touched only by the Run goroutine.
	ctx         context.Context
	st          state
	sched       *scheduler
	simTicker   *time.Ticker
	pulseCancel map[sensor.Quantity]func()
}

// state is the single dashboard instance.
type state struct {
	current     sensor.Reading
	hasCurrent  bool
	buffer      *history.Buffer
	mode        Mode
	timeRange   sensor.TimeRange
	devices     []sensor.Device
	suggestions *suggest.Queue
	loading     bool
	lastError   string
	updatedAt   time.Time

	// Request-generation bookkeeping.
	histGen     uint64 // bumped on every range change
	histReq     uint64 // id of the latest historical request
	histApplied uint64 // id of the last historical response applied
	rangeLoad   bool   // historical reload after a range change in flight
	refreshSeq  uint64
	pending     int // outstanding parts of refresh cycle refreshSeq
	cycleFailed bool
	applied     map[string]uint64 // newest refresh seq applied per op
	simTicks    uint64
}

// New builds a controller. Run must be called to start it.
func New(opts Options) *Controller {
	c := &Controller{
		provider:          opts.Provider,
		sink:              opts.Sink,
		events:            opts.Events,
		sim:               opts.Simulator,
		metrics:           opts.Metrics,
		log:               opts.Logger,
		refreshInterval:   orDefault(opts.RefreshInterval, defaultRefreshInterval),
		simulatorInterval: orDefault(opts.SimulatorInterval, defaultSimulatorInterval),
		pulseDuration:     orDefault(opts.PulseDuration, defaultPulseDuration),
		fetchTimeout:      orDefault(opts.FetchTimeout, defaultFetchTimeout),
		ops:               make(chan func()),
		quit:              make(chan struct{}),
		done:              make(chan struct{}),
		started:           make(chan struct{}),
		pulseCancel:       make(map[sensor.Quantity]func()),
	}
	if c.sink == nil {
		c.sink = NopSink{}
	}
	if c.sim == nil {
		c.sim = sensor.NewSimulator(nil, nil)
	}
	if c.metrics == nil {
		c.metrics = metrics.New()
	}
	if c.log == nil {
		c.log = logging.Discard()
	}
	c.log = c.log.With(slog.String("component", "dashboard"))

	tr := opts.TimeRange
	if !tr.Valid() {
		tr = sensor.Range24h
	}
	c.st = state{
		buffer:      history.NewBuffer(opts.BufferSize),
		mode:        opts.Mode,
		timeRange:   tr,
		suggestions: suggest.NewQueue(opts.SuggestionsMax),
		applied:     make(map[string]uint64),
	}
	return c
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Run performs the initial load and then processes events until ctx is
// cancelled or Close is called. It must be called once.
func (c *Controller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.ctx = ctx
	c.sched = newScheduler(c.post)
	defer c.shutdown()

	refresh := time.NewTicker(c.refreshInterval)
	defer refresh.Stop()

	close(c.started)
	c.log.Info("dashboard_started",
		slog.String("mode", c.st.mode.String()),
		slog.String("range", c.st.timeRange.String()),
		slog.Duration("refresh", c.refreshInterval))

	c.setMode(c.st.mode)
	c.startRefresh()

	events := c.events
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.quit:
			return nil
		case fn := <-c.ops:
			fn()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			c.handleEvent(ev)
		case <-refresh.C:
			c.startRefresh()
		case <-c.simTick():
			c.simulate()
		}
	}
}

func (c *Controller) shutdown() {
	c.sched.cancelAll()
	c.stopSimulator()
	close(c.done)
	c.log.Info("dashboard_stopped")
}

// Close stops Run and cancels every scheduled task. It is safe to call
// more than once and from any goroutine.
func (c *Controller) Close() {
	c.closeOnce.Do(func() { close(c.quit) })
	select {
	case <-c.started:
		<-c.done
	default:
	}
}

// post hands fn to the Run goroutine. It reports false once the
// controller has stopped.
func (c *Controller) post(fn func()) bool {
	select {
	case <-c.done:
		return false
	case <-c.quit:
		return false
	default:
	}
	select {
	case c.ops <- fn:
		return true
	case <-c.done:
		return false
	case <-c.quit:
		return false
	}
}

// call runs fn on the Run goroutine and waits for it to finish.
func (c *Controller) call(fn func()) error {
	finished := make(chan struct{})
	if !c.post(func() { fn(); close(finished) }) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// ── Public commands ──────────────────────────────────────────────────

// HandleEvent feeds a push event, as if it had arrived on Options.Events.
func (c *Controller) HandleEvent(ev push.Event) error {
	return c.call(func() { c.handleEvent(ev) })
}

// ToggleMode switches between live and simulated data.
func (c *Controller) ToggleMode() error {
	return c.call(func() {
		if c.st.mode == ModeLive {
			c.setMode(ModeSimulated)
		} else {
			c.setMode(ModeLive)
		}
		c.render()
	})
}

// SetTimeRange invalidates the chart and reloads history for r.
func (c *Controller) SetTimeRange(r sensor.TimeRange) error {
	if !r.Valid() {
		return sensor.ErrUnknownRange
	}
	return c.call(func() { c.changeRange(r) })
}

// ToggleDevice asks the provider to flip a device. The cached status
// changes only once the provider confirms.
func (c *Controller) ToggleDevice(id int) error {
	return c.call(func() { c.toggleDevice(id) })
}

// Refresh starts a full reload immediately.
func (c *Controller) Refresh() error {
	return c.call(c.startRefresh)
}

// Snapshot is a read-only copy of the dashboard state.
type Snapshot struct {
	Current     sensor.Reading
	HasCurrent  bool
	Points      []history.Point
	Mode        Mode
	TimeRange   sensor.TimeRange
	Devices     []sensor.Device
	Suggestions []sensor.Suggestion
	Loading     bool
	LastError   string
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() (Snapshot, error) {
	var s Snapshot
	err := c.call(func() {
		s = Snapshot{
			Current:     c.st.current,
			HasCurrent:  c.st.hasCurrent,
			Points:      c.st.buffer.Snapshot(),
			Mode:        c.st.mode,
			TimeRange:   c.st.timeRange,
			Devices:     append([]sensor.Device(nil), c.st.devices...),
			Suggestions: c.st.suggestions.Items(),
			Loading:     c.st.loading || c.st.rangeLoad,
			LastError:   c.st.lastError,
		}
	})
	return s, err
}

// ── Rendering ────────────────────────────────────────────────────────

func (c *Controller) viewModel() ViewModel {
	vm := ViewModel{
		Mode:        c.st.mode,
		Loading:     c.st.loading || c.st.rangeLoad,
		Chart:       chartView(c.st.buffer, c.st.timeRange),
		Devices:     append([]sensor.Device(nil), c.st.devices...),
		Suggestions: c.st.suggestions.Items(),
		LastError:   c.st.lastError,
		UpdatedAt:   c.st.updatedAt,
	}
	if c.st.hasCurrent {
		vm.Current = currentView(c.st.current)
	}
	return vm
}

func (c *Controller) render() {
	c.metrics.BufferLength.Set(float64(c.st.buffer.Len()))
	c.metrics.SuggestionsLen.Set(float64(c.st.suggestions.Len()))
	c.sink.Render(c.viewModel())
}

// ── Mode and simulator ───────────────────────────────────────────────

func (c *Controller) setMode(m Mode) {
	prev := c.st.mode
	c.st.mode = m
	if m == ModeSimulated {
		c.metrics.Simulated.Set(1)
		c.startSimulator()
	} else {
		c.metrics.Simulated.Set(0)
		c.stopSimulator()
	}
	if prev != m {
		c.log.Info("mode_changed", slog.String("from", prev.String()), slog.String("to", m.String()))
	}
}

func (c *Controller) startSimulator() {
	if c.simTicker != nil {
		return
	}
	c.simTicker = time.NewTicker(c.simulatorInterval)
}

func (c *Controller) stopSimulator() {
	if c.simTicker == nil {
		return
	}
	c.simTicker.Stop()
	c.simTicker = nil
}

func (c *Controller) simTick() <-chan time.Time {
	if c.simTicker == nil {
		return nil
	}
	return c.simTicker.C
}

func (c *Controller) simulate() {
	if c.st.mode != ModeSimulated {
		return
	}
	r := c.sim.Next()
	c.ingest(r, sourceSimulator)
	c.st.simTicks++
	if c.st.simTicks%simAdviseEvery != 0 {
		return
	}
	if advice := metric.Advise(r); len(advice) > 0 {
		c.st.suggestions.Push(advice...)
		c.render()
	}
}
