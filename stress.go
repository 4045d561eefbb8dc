package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/luki/homedash/internal/config"
	"github.com/luki/homedash/internal/metric"
	"github.com/luki/homedash/internal/push"
	"github.com/luki/homedash/internal/sensor"
)

// stressTargets lists the push transports we can flood.
var stressTargets = []struct {
	name string
	desc string
}{
	{config.TransportKafka, "Kafka topics (push.brokers, push.sensor_topic, push.suggestion_topic)"},
	{config.TransportMQTT, "MQTT broker (push.mqtt_broker, push.mqtt_topic_prefix)"},
}

// suggestEvery is how many readings pass between suggestion batches.
const suggestEvery = 5

func runStress(cfg *config.Config, args []string) {
	if len(args) == 0 {
		printStressHelp()
		return
	}

	target := args[0]

	duration := 60 * time.Second
	if len(args) > 1 {
		if d, err := time.ParseDuration(args[1]); err == nil {
			duration = d
		} else if secs, err := strconv.Atoi(args[1]); err == nil {
			duration = time.Duration(secs) * time.Second
		}
	}
	if duration < time.Second {
		duration = 60 * time.Second
	}

	rate := 2.0
	if len(args) > 2 {
		if r, err := strconv.ParseFloat(args[2], 64); err == nil && r > 0 {
			rate = r
		}
	}

	pub, err := openPublisher(cfg, target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		printStressHelp()
		os.Exit(1)
	}
	defer pub.Close()

	fmt.Printf("Publishing simulated readings to %s at %.1f/s for %s\n", target, rate, duration)
	fmt.Println("Press Ctrl+C to stop early")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	readings, suggestions, failures := publishLoop(ctx, pub, sensor.NewSimulator(nil, nil), time.Duration(float64(time.Second)/rate))

	if ctx.Err() == context.DeadlineExceeded {
		fmt.Println("  completed")
	} else {
		fmt.Println("\n  interrupted")
	}
	fmt.Printf("  %d readings, %d suggestions, %d failures\n", readings, suggestions, failures)
}

// publishLoop sends one simulated reading per tick, plus the advice for it
// on every suggestEvery-th tick, until ctx ends.
func publishLoop(ctx context.Context, pub push.Publisher, sim *sensor.Simulator, every time.Duration) (readings, suggestions, failures int) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for n := 1; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		r := sim.Next()
		if err := pub.Publish(ctx, push.KindSensorData, r); err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			fmt.Fprintf(os.Stderr, "  publish: %v\n", err)
			continue
		}
		readings++

		if n%suggestEvery != 0 {
			continue
		}
		advice := metric.Advise(r)
		if len(advice) == 0 {
			continue
		}
		if err := pub.Publish(ctx, push.KindNewSuggestions, advice); err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			fmt.Fprintf(os.Stderr, "  publish: %v\n", err)
			continue
		}
		suggestions += len(advice)
	}
}

func openPublisher(cfg *config.Config, target string) (push.Publisher, error) {
	switch target {
	case config.TransportKafka:
		return push.NewKafkaPublisher(kafkaConfig(cfg))
	case config.TransportMQTT:
		return push.NewMQTTPublisher(mqttConfig(cfg))
	}
	return nil, fmt.Errorf("unknown target: %s", target)
}

func printStressHelp() {
	fmt.Println("Usage: homedash stress <target> [duration] [rate]")
	fmt.Println()
	fmt.Println("Targets:")
	for _, t := range stressTargets {
		fmt.Printf("  %-8s  %s\n", t.name, t.desc)
	}
	fmt.Println()
	fmt.Println("Duration: e.g. '60' (seconds), '2m', '30s' (default: 60s)")
	fmt.Println("Rate:     readings per second (default: 2)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  homedash stress mqtt 30s")
	fmt.Println("  homedash stress kafka 2m 10")
}
