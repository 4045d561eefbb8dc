package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/luki/homedash/internal/config"
	"github.com/luki/homedash/internal/dashboard"
	"github.com/luki/homedash/internal/push"
	"github.com/luki/homedash/internal/sensor"
)

type recordingPublisher struct {
	mu    sync.Mutex
	kinds []push.Kind
	fail  bool
}

func (p *recordingPublisher) Publish(_ context.Context, kind push.Kind, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	if _, err := push.Encode(kind, v); err != nil {
		return err
	}
	p.kinds = append(p.kinds, kind)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestPublishLoop(t *testing.T) {
	sim := sensor.NewSimulator(rand.New(rand.NewPCG(1, 2)), time.Now)
	pub := &recordingPublisher{}
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	readings, _, failures := publishLoop(ctx, pub, sim, 5*time.Millisecond)
	if readings < 5 {
		t.Fatalf("readings = %d, want at least 5", readings)
	}
	if failures != 0 {
		t.Errorf("failures = %d", failures)
	}
	if pub.kinds[0] != push.KindSensorData {
		t.Errorf("first kind = %s", pub.kinds[0])
	}
}

func TestPublishLoopCountsFailures(t *testing.T) {
	pub := &recordingPublisher{fail: true}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	readings, _, failures := publishLoop(ctx, pub, sensor.NewSimulator(nil, nil), 5*time.Millisecond)
	if readings != 0 || failures == 0 {
		t.Errorf("readings = %d, failures = %d", readings, failures)
	}
}

func TestOpenSourceNone(t *testing.T) {
	src, err := openSource(&config.Config{Push: config.PushConfig{Transport: config.TransportNone}}, nil)
	if err != nil || src != nil {
		t.Errorf("openSource(none) = %v, %v; want nil, nil", src, err)
	}
}

func TestStartMode(t *testing.T) {
	if startMode(true) != dashboard.ModeSimulated || startMode(false) != dashboard.ModeLive {
		t.Error("startMode mapping wrong")
	}
}
