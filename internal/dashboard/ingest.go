package dashboard

import (
	"log/slog"
	"time"

	"github.com/luki/homedash/internal/history"
	"github.com/luki/homedash/internal/metric"
	"github.com/luki/homedash/internal/metrics"
	"github.com/luki/homedash/internal/push"
	"github.com/luki/homedash/internal/sensor"
)

// Ingestion sources, as reported in the ingested counter.
const (
	sourcePush      = "push"
	sourceSimulator = "simulator"
)

func (c *Controller) handleEvent(ev push.Event) {
	log := c.log.With(slog.String("event", ev.ID), slog.String("kind", string(ev.Kind)))
	switch ev.Kind {
	case push.KindSensorData:
		if c.st.mode != ModeLive {
			c.metrics.Dropped.WithLabelValues(metrics.ReasonInactiveSource).Inc()
			log.Debug("push_dropped", slog.String("mode", c.st.mode.String()))
			return
		}
		c.ingest(ev.Reading, sourcePush)
	case push.KindNewSuggestions:
		if len(ev.Suggestions) == 0 {
			return
		}
		c.st.suggestions.Push(ev.Suggestions...)
		log.Info("suggestions_received", slog.Int("count", len(ev.Suggestions)))
		c.render()
	default:
		log.Warn("push_unknown_kind")
	}
}

// ingest applies one real-time reading: it becomes the current value,
// joins the rolling chart window and pulses every value card.
func (c *Controller) ingest(r sensor.Reading, source string) {
	if err := r.Validate(); err != nil {
		c.metrics.Dropped.WithLabelValues(metrics.ReasonInvalid).Inc()
		c.log.Warn("reading_rejected", slog.String("source", source), slog.Any("err", err))
		return
	}
	c.setCurrent(r)
	c.st.buffer.Append(history.NewPoint(r))
	c.metrics.Ingested.WithLabelValues(source).Inc()
	c.render()
	c.pulse()
}

func (c *Controller) setCurrent(r sensor.Reading) {
	c.st.current = r
	c.st.hasCurrent = true
	c.st.updatedAt = time.Now()
	c.metrics.Efficiency.Set(float64(metric.EfficiencyScore(r)))
}

// pulse highlights every value card and schedules the highlight's removal.
// A card pulsed again before its clear fires gets a fresh clear timer.
func (c *Controller) pulse() {
	for _, q := range sensor.AllQuantities {
		if cancel, ok := c.pulseCancel[q]; ok {
			cancel()
		}
		c.sink.Pulse(PulseEvent{Quantity: q, On: true})
		c.pulseCancel[q] = c.sched.after(c.pulseDuration, func() {
			delete(c.pulseCancel, q)
			c.sink.Pulse(PulseEvent{Quantity: q})
		})
	}
}
