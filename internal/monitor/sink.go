package monitor

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/luki/homedash/internal/dashboard"
)

// Sink adapts the dashboard controller to a running tea.Program. Render
// and Pulse never block: frames are coalesced so the UI only ever sees the
// newest view-model, and pulses are dropped when the UI falls behind.
type Sink struct {
	mu     sync.Mutex
	latest dashboard.ViewModel
	dirty  chan struct{}
	pulses chan dashboard.PulseEvent
}

// NewSink returns a sink whose output is delivered by Pump.
func NewSink() *Sink {
	return &Sink{
		dirty:  make(chan struct{}, 1),
		pulses: make(chan dashboard.PulseEvent, 64),
	}
}

func (s *Sink) Render(vm dashboard.ViewModel) {
	s.mu.Lock()
	s.latest = vm
	s.mu.Unlock()
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Sink) Pulse(ev dashboard.PulseEvent) {
	select {
	case s.pulses <- ev:
	default:
	}
}

// Pump forwards frames and pulses to send, typically tea.Program.Send,
// until ctx is cancelled.
func (s *Sink) Pump(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.dirty:
			s.mu.Lock()
			vm := s.latest
			s.mu.Unlock()
			send(viewModelMsg(vm))
		case ev := <-s.pulses:
			send(pulseMsg(ev))
		}
	}
}
