// Package monitor implements the smart-home dashboard TUI using BubbleTea,
// with per-quantity sparklines, tier-coloured values, a device list and the
// suggestion queue. It only renders what the dashboard controller sends
// and forwards key presses back to it.
package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/luki/homedash/internal/chart"
	"github.com/luki/homedash/internal/dashboard"
	"github.com/luki/homedash/internal/history"
	"github.com/luki/homedash/internal/metric"
	"github.com/luki/homedash/internal/sensor"
)

const clockInterval = 1 * time.Second

// Controller is the part of the dashboard the TUI drives.
type Controller interface {
	ToggleMode() error
	SetTimeRange(r sensor.TimeRange) error
	ToggleDevice(id int) error
	Refresh() error
}

// ── Messages ─────────────────────────────────────────────────────────

type tickMsg time.Time

type viewModelMsg dashboard.ViewModel

type pulseMsg dashboard.PulseEvent

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// ── Model ────────────────────────────────────────────────────────────

// Model is the BubbleTea model for the dashboard.
type Model struct {
	ctrl      Controller
	vm        dashboard.ViewModel
	hasVM     bool
	pulsing   map[sensor.Quantity]bool
	cursor    int
	err       error
	width     int
	height    int
	scroll    int
	startTime time.Time
	help      help.Model
}

// New creates the initial model. Frames arrive through a Sink.
func New(ctrl Controller) Model {
	return Model{
		ctrl:      ctrl,
		pulsing:   make(map[sensor.Quantity]bool),
		startTime: time.Now(),
		help:      help.New(),
	}
}

// ── Commands ─────────────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// run calls into the controller off the UI goroutine.
func run(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

// ── Init / Update ────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		return m, tickCmd()

	case viewModelMsg:
		m.vm = dashboard.ViewModel(msg)
		m.hasVM = true
		if m.cursor >= len(m.vm.Devices) {
			m.cursor = max(0, len(m.vm.Devices)-1)
		}

	case pulseMsg:
		m.pulsing[msg.Quantity] = msg.On

	case errMsg:
		m.err = msg.err
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Mode):
		return m, run(m.ctrl.ToggleMode)
	case key.Matches(msg, keys.Range24h):
		return m, m.setRange(sensor.Range24h)
	case key.Matches(msg, keys.Range7d):
		return m, m.setRange(sensor.Range7d)
	case key.Matches(msg, keys.Range30d):
		return m, m.setRange(sensor.Range30d)
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.vm.Devices)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Toggle):
		if m.cursor < len(m.vm.Devices) {
			id := m.vm.Devices[m.cursor].ID
			return m, run(func() error { return m.ctrl.ToggleDevice(id) })
		}
	case key.Matches(msg, keys.Refresh):
		m.err = nil
		return m, run(m.ctrl.Refresh)
	case key.Matches(msg, keys.PageUp):
		m.scroll = max(0, m.scroll-5)
	case key.Matches(msg, keys.PageDown):
		m.scroll += 5
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) setRange(r sensor.TimeRange) tea.Cmd {
	if m.hasVM && m.vm.Chart.Range == r {
		return nil
	}
	return run(func() error { return m.ctrl.SetTimeRange(r) })
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorHeading  = lipgloss.Color("147")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorOk       = lipgloss.Color("78")
	colorWarn     = lipgloss.Color("220")
	colorCrit     = lipgloss.Color("196")
	colorPulse    = lipgloss.Color("213")
	colorCursor   = lipgloss.Color("51")
)

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	contentWidth := m.width - 2
	if contentWidth < 60 {
		contentWidth = 60
	}

	var sections []string

	sections = append(sections, m.renderTitleBar(contentWidth))

	if e := m.errorText(); e != "" {
		errBox := lipgloss.NewStyle().
			Foreground(colorCrit).
			Bold(true).
			Width(contentWidth).
			Padding(0, 1).
			Render(" ERROR: " + e)
		sections = append(sections, errBox)
	}

	if !m.hasVM {
		waiting := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(contentWidth).
			Align(lipgloss.Center).
			Padding(2, 0).
			Render("Connecting to dashboard...")
		sections = append(sections, waiting)
	} else {
		sections = append(sections,
			m.renderCurrent(contentWidth),
			m.renderChart(contentWidth),
			m.renderDevices(contentWidth),
			m.renderSuggestions(contentWidth),
		)
	}

	sections = append(sections, m.renderFooter(contentWidth))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	lines := strings.Split(content, "\n")
	visibleLines := m.height
	if visibleLines < 5 {
		visibleLines = 5
	}
	maxScroll := len(lines) - visibleLines
	if maxScroll < 0 {
		maxScroll = 0
	}
	start := min(m.scroll, maxScroll)
	end := min(start+visibleLines, len(lines))

	return strings.Join(lines[start:end], "\n")
}

func (m Model) errorText() string {
	switch {
	case m.err != nil:
		return m.err.Error()
	case m.vm.LastError != "":
		return m.vm.LastError
	}
	return ""
}

func (m Model) renderTitleBar(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("HOMEDASH")

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	var statusParts []string

	modeColor := colorOk
	if m.vm.Mode == dashboard.ModeSimulated {
		modeColor = colorWarn
	}
	statusParts = append(statusParts, lipgloss.NewStyle().
		Foreground(modeColor).
		Bold(true).
		Render(strings.ToUpper(m.vm.Mode.String())))

	if m.hasVM {
		statusParts = append(statusParts, dimS.Render("range "+m.vm.Chart.Range.String()))
	}
	if m.vm.Loading {
		statusParts = append(statusParts, lipgloss.NewStyle().Foreground(colorWarn).Render("loading…"))
	}
	if !m.vm.UpdatedAt.IsZero() {
		statusParts = append(statusParts, dimS.Render(m.vm.UpdatedAt.Format("15:04:05")))
	}
	statusParts = append(statusParts, dimS.Render(fmt.Sprintf("up %s", fmtDuration(time.Since(m.startTime)))))

	sep := dimS.Render(" │ ")
	right := strings.Join(statusParts, sep)

	gap := width - lipgloss.Width(logo) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}
	filler := strings.Repeat(" ", gap)

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + filler + right)
}

func panel(title string, width int, rows ...string) string {
	head := lipgloss.NewStyle().Bold(true).Foreground(colorHeading).Render(title)
	content := lipgloss.JoinVertical(lipgloss.Left, append([]string{head}, rows...)...)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(width).
		Render(content)
}

const (
	labelW = 13
	valueW = 11
)

func (m Model) renderCurrent(width int) string {
	cur := m.vm.Current
	if !cur.Valid {
		return panel("Current", width, lipgloss.NewStyle().Foreground(colorDim).Render("Waiting for sensor data..."))
	}

	scaleW := max(10, min(40, width-labelW-valueW-30))
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	labelS := lipgloss.NewStyle().Foreground(colorLabel).Width(labelW)

	var rows []string
	for _, qv := range cur.Quantities {
		marker := " "
		if m.pulsing[qv.Quantity] {
			marker = lipgloss.NewStyle().Foreground(colorPulse).Render("●")
		}
		value := lipgloss.NewStyle().
			Width(valueW).
			Align(lipgloss.Right).
			Render(chart.RenderValue(qv.Value, qv.Unit, qv.Tier))

		var detail string
		if th, ok := metric.ThresholdsFor(qv.Quantity); ok {
			lo, hi := chart.Bounds([]float64{qv.Value}, th.Range)
			detail = chart.RenderBandScale(qv.Value, lo, hi, th.Range, scaleW) + " " +
				lipgloss.NewStyle().Foreground(chart.TierColor(qv.Tier)).Render(qv.Status)
		} else {
			detail = chart.RenderGauge(qv.Gauge, scaleW) + dimS.Render(fmt.Sprintf(" %3.0f%%", qv.Gauge))
		}
		rows = append(rows, labelS.Render(truncate(qv.Label, labelW))+" "+value+" "+marker+" "+detail)
	}

	scoreColor := colorOk
	switch {
	case cur.Efficiency < 50:
		scoreColor = colorCrit
	case cur.Efficiency < 80:
		scoreColor = colorWarn
	}
	score := lipgloss.NewStyle().
		Width(valueW).
		Align(lipgloss.Right).
		Foreground(scoreColor).
		Bold(true).
		Render(fmt.Sprintf("%d/100", cur.Efficiency))
	rows = append(rows, labelS.Render("Efficiency")+" "+score+"   "+chart.RenderGauge(float64(cur.Efficiency), scaleW))

	title := "Current"
	if !cur.Timestamp.IsZero() {
		title += dimS.Render("  " + cur.Timestamp.Local().Format("2006-01-02 15:04:05"))
	}
	return panel(title, width, rows...)
}

func seriesFor(c dashboard.ChartView, q sensor.Quantity) []float64 {
	switch q {
	case sensor.Temperature:
		return c.Temperature
	case sensor.Humidity:
		return c.Humidity
	case sensor.AirQuality:
		return c.AirQuality
	case sensor.EnergyUsage:
		return c.Energy
	}
	return nil
}

func (m Model) renderChart(width int) string {
	c := m.vm.Chart

	chartWidth := width - labelW - 40
	if chartWidth < 15 {
		chartWidth = 15
	}
	if chartWidth > 140 {
		chartWidth = 140
	}

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	labelS := lipgloss.NewStyle().Foreground(colorLabel).Width(labelW)
	frameL := lipgloss.NewStyle().Foreground(colorBorder).Render("▕")
	frameR := lipgloss.NewStyle().Foreground(colorBorder).Render("▏")

	var rows []string
	for _, q := range sensor.Monitored {
		values := seriesFor(c, q)
		th, _ := metric.ThresholdsFor(q)
		lo, hi := chart.Bounds(values, th.Range)
		spark := chart.RenderSparkline(values, chartWidth, lo, hi, th.Range)

		st := history.StatsOf(c.Points, q)
		stats := dimS.Render(" avg") + valS.Render(fmt.Sprintf("%7.1f", st.Avg)) +
			dimS.Render(" lo") + valS.Render(fmt.Sprintf("%7.1f", st.Min)) +
			dimS.Render(" pk") + valS.Render(fmt.Sprintf("%7.1f", st.Peak))
		if st.N == 0 {
			stats = ""
		}
		rows = append(rows, labelS.Render(q.Label())+" "+frameL+spark+frameR+stats)
	}

	if timeline := chart.RenderTimeline(c.Labels, chartWidth); strings.TrimSpace(timeline) != "" {
		rows = append(rows, strings.Repeat(" ", labelW+2)+timeline)
	}

	title := fmt.Sprintf("History %s", c.Range) + dimS.Render(fmt.Sprintf("  %d points", len(c.Points)))
	return panel(title, width, rows...)
}

func (m Model) renderDevices(width int) string {
	if len(m.vm.Devices) == 0 {
		return panel("Devices", width, lipgloss.NewStyle().Foreground(colorDim).Render("No devices"))
	}

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	nameS := lipgloss.NewStyle().Foreground(colorLabel).Width(24)
	typeS := dimS.Width(12)

	var rows []string
	for i, d := range m.vm.Devices {
		cursor := "  "
		if i == m.cursor {
			cursor = lipgloss.NewStyle().Foreground(colorCursor).Bold(true).Render("› ")
		}
		status := dimS.Render("OFF")
		if d.On() {
			status = lipgloss.NewStyle().Foreground(colorOk).Bold(true).Render("ON ")
		}
		rows = append(rows, cursor+nameS.Render(truncate(d.Name, 24))+" "+typeS.Render(d.Type)+" "+status+
			dimS.Render(fmt.Sprintf("  %6.0f W", d.EnergyConsumption)))
	}
	return panel("Devices", width, rows...)
}

func priorityStyle(p sensor.Priority) lipgloss.Style {
	switch p {
	case sensor.PriorityHigh:
		return lipgloss.NewStyle().Foreground(colorCrit).Bold(true)
	case sensor.PriorityMedium:
		return lipgloss.NewStyle().Foreground(colorWarn)
	default:
		return lipgloss.NewStyle().Foreground(colorDim)
	}
}

func (m Model) renderSuggestions(width int) string {
	if len(m.vm.Suggestions) == 0 {
		return panel("Suggestions", width, lipgloss.NewStyle().Foreground(colorDim).Render("Nothing to suggest"))
	}

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	msgW := max(20, width-32)

	var rows []string
	for _, s := range m.vm.Suggestions {
		ts := "     "
		if !s.Timestamp.IsZero() {
			ts = s.Timestamp.Local().Format("15:04")
		}
		tag := priorityStyle(s.Priority).Width(7).Render(s.Priority.String())
		cat := dimS.Width(8).Render(string(s.Category))
		rows = append(rows, dimS.Render(ts)+" "+tag+" "+cat+" "+
			lipgloss.NewStyle().Foreground(colorLabel).Render(truncate(s.Message, msgW)))
	}
	return panel("Suggestions", width, rows...)
}

func (m Model) renderFooter(width int) string {
	lowS := lipgloss.NewStyle().Foreground(chart.TierColor(metric.TierLow)).Render("██")
	okS := lipgloss.NewStyle().Foreground(chart.TierColor(metric.TierGood)).Render("██")
	highS := lipgloss.NewStyle().Foreground(chart.TierColor(metric.TierHigh)).Render("██")
	pulseS := lipgloss.NewStyle().Foreground(colorPulse).Render("●")

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	legend := lowS + dimS.Render(" low ") +
		okS + dimS.Render(" ok ") +
		highS + dimS.Render(" high ") +
		pulseS + dimS.Render(" new")

	helpView := m.help.View(keys)

	gap := width - lipgloss.Width(legend) - lipgloss.Width(helpView) - 4
	if gap < 1 || m.help.ShowAll {
		return lipgloss.NewStyle().
			Background(colorFooterBg).
			Width(width).
			Padding(0, 1).
			Render(lipgloss.JoinVertical(lipgloss.Left, legend, helpView))
	}
	filler := strings.Repeat(" ", gap)

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(legend + filler + helpView)
}

func truncate(s string, w int) string {
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	if w <= 3 {
		return string(r[:w])
	}
	return string(r[:w-1]) + "…"
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
