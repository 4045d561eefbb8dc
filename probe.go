package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/homedash/internal/config"
	"github.com/luki/homedash/internal/dashboard"
	"github.com/luki/homedash/internal/metric"
	"github.com/luki/homedash/internal/provider"
)

var (
	probeOk   = lipgloss.NewStyle().Foreground(lipgloss.Color("78")).Render("ok  ")
	probeFail = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).Render("FAIL")
	probeDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// runProbe fetches every resource once, printing one line per call.
func runProbe(cfg *config.Config) error {
	client := provider.New(cfg.APIURL, cfg.APITimeout)
	ctx, cancel := context.WithTimeout(context.Background(), 4*cfg.APITimeout)
	defer cancel()

	fmt.Println(probeDim.Render("Probing " + cfg.APIURL))
	var failed int
	report := func(op string, err error, detail string) {
		if err != nil {
			failed++
			fmt.Printf("  %s %-16s %v\n", probeFail, op, err)
			return
		}
		fmt.Printf("  %s %-16s %s\n", probeOk, op, detail)
	}

	r, err := client.Current(ctx)
	switch {
	case errors.Is(err, provider.ErrNoData):
		report(provider.OpCurrent, nil, "no reading stored yet")
	case err != nil:
		report(provider.OpCurrent, err, "")
	default:
		detail := fmt.Sprintf("%.1f°C %.0f%% air %.0f  efficiency %d", r.Temperature, r.Humidity, r.AirQuality, metric.EfficiencyScore(r))
		if verr := r.Validate(); verr != nil {
			detail += probeDim.Render("  (" + verr.Error() + ")")
		}
		report(provider.OpCurrent, nil, detail)
	}

	rng := cfg.Range()
	hist, err := client.Historical(ctx, rng)
	report(provider.OpHistorical, err, fmt.Sprintf("%d points over %s", len(hist), rng))

	devices, err := client.Devices(ctx)
	on := 0
	for _, d := range devices {
		if d.On() {
			on++
		}
	}
	report(provider.OpDevices, err, fmt.Sprintf("%d devices, %d on", len(devices), on))

	suggestions, err := client.Suggestions(ctx)
	report(provider.OpSuggestions, err, fmt.Sprintf("%d suggestions", len(suggestions)))

	fmt.Println(probeDim.Render(fmt.Sprintf("Mode at start: %s", startMode(cfg.StartSimulated))))
	if failed > 0 {
		return fmt.Errorf("%d of 4 requests failed", failed)
	}
	return nil
}

func startMode(simulated bool) dashboard.Mode {
	if simulated {
		return dashboard.ModeSimulated
	}
	return dashboard.ModeLive
}
