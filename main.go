// Command homedash is a terminal dashboard for a smart home: live and
// historical sensor readings, device switches and energy suggestions.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/handlers"

	"github.com/luki/homedash/internal/config"
	"github.com/luki/homedash/internal/dashboard"
	"github.com/luki/homedash/internal/logging"
	"github.com/luki/homedash/internal/metrics"
	"github.com/luki/homedash/internal/monitor"
	"github.com/luki/homedash/internal/provider"
	"github.com/luki/homedash/internal/push"
	"github.com/luki/homedash/internal/sensor"
)

var version = "dev"

func main() {
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "help", "-h", "--help":
			printHelp()
			return
		case "version", "-v", "--version":
			fmt.Println("homedash", version)
			return
		case "stress":
			runStress(mustLoadConfig(), args[1:])
			return
		case "probe":
			if err := runProbe(mustLoadConfig()); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
			printHelp()
			os.Exit(1)
		}
	}

	if err := runDashboard(mustLoadConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("Usage: homedash [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  (none)    open the dashboard")
	fmt.Println("  probe     fetch every resource once and print a summary")
	fmt.Println("  stress    publish simulated readings to the push channel")
	fmt.Println("  version   print the version")
	fmt.Println()
	fmt.Println("Settings come from homedash.yaml (., ./config, ~/.homedash),")
	fmt.Println(".env and HOMEDASH_* variables, e.g. HOMEDASH_API_URL.")
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func kafkaConfig(cfg *config.Config) push.KafkaConfig {
	return push.KafkaConfig{
		Brokers:         cfg.Push.Brokers,
		GroupID:         cfg.Push.GroupID,
		SharedGroup:     cfg.Push.SharedGroup,
		SensorTopic:     cfg.Push.SensorTopic,
		SuggestionTopic: cfg.Push.SuggestionTopic,
		PollTimeout:     cfg.Push.PollTimeout,
	}
}

func mqttConfig(cfg *config.Config) push.MQTTConfig {
	return push.MQTTConfig{
		Broker:      cfg.Push.MQTTBroker,
		ClientID:    cfg.Push.MQTTClientID,
		TopicPrefix: cfg.Push.MQTTTopicPrefix,
	}
}

// openSource returns the configured push source, or nil when push is off.
func openSource(cfg *config.Config, log *slog.Logger) (push.Source, error) {
	switch cfg.Push.Transport {
	case config.TransportKafka:
		return push.NewKafkaSource(kafkaConfig(cfg), log)
	case config.TransportMQTT:
		return push.NewMQTTSource(mqttConfig(cfg), log)
	}
	return nil, nil
}

func runDashboard(cfg *config.Config) error {
	log, logFile, err := logging.Init(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()
	log.Info("homedash_starting", slog.String("version", version), slog.String("api", cfg.APIURL),
		slog.String("push", cfg.Push.Transport))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: handlers.LoggingHandler(logFile, m.Router()), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics_server_failed", slog.Any("err", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var events chan push.Event
	src, err := openSource(cfg, log)
	if err != nil {
		return fmt.Errorf("push source: %w", err)
	}
	if src != nil {
		events = make(chan push.Event, 64)
		defer src.Close()
		go func() {
			if err := src.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("push_source_stopped", slog.Any("err", err))
			}
		}()
	}

	sink := monitor.NewSink()
	ctrl := dashboard.New(dashboard.Options{
		Provider:          provider.New(cfg.APIURL, cfg.APITimeout),
		Sink:              sink,
		Events:            events,
		Simulator:         sensor.NewSimulator(nil, nil),
		Metrics:           m,
		Logger:            log,
		RefreshInterval:   cfg.RefreshInterval,
		SimulatorInterval: cfg.SimulatorInterval,
		PulseDuration:     cfg.PulseDuration,
		FetchTimeout:      cfg.APITimeout,
		BufferSize:        cfg.BufferSize,
		SuggestionsMax:    cfg.SuggestionsMax,
		TimeRange:         cfg.Range(),
		Mode:              startMode(cfg.StartSimulated),
	})
	go func() {
		if err := ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("dashboard_stopped", slog.Any("err", err))
		}
	}()
	defer ctrl.Close()

	p := tea.NewProgram(monitor.New(ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	go sink.Pump(ctx, p.Send)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("homedash_exiting")
	return nil
}
