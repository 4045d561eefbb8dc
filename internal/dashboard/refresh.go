package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/luki/homedash/internal/history"
	"github.com/luki/homedash/internal/metrics"
	"github.com/luki/homedash/internal/provider"
	"github.com/luki/homedash/internal/sensor"
)

// refreshParts is the number of independent fetches in one refresh cycle.
const refreshParts = 4

// histToken identifies a historical request. gen is the range generation
// it was issued under; id orders requests within a generation.
type histToken struct {
	gen   uint64
	id    uint64
	rng   sensor.TimeRange
	cycle uint64 // refresh seq, 0 when issued by a range change
}

// startRefresh kicks off a full reload. The four parts run concurrently
// and report back to the loop independently.
func (c *Controller) startRefresh() {
	c.st.refreshSeq++
	seq := c.st.refreshSeq
	c.st.pending = refreshParts
	c.st.cycleFailed = false
	c.st.loading = true
	c.metrics.Refreshes.Inc()

	log := c.log.With(slog.String("cycle", uuid.NewString()), slog.Uint64("seq", seq))
	log.Debug("refresh_started", slog.String("range", c.st.timeRange.String()))
	c.render()

	fetch(c, provider.OpCurrent, seq, log, c.provider.Current, func(r sensor.Reading) {
		if err := r.Validate(); err != nil {
			c.metrics.Dropped.WithLabelValues(metrics.ReasonInvalid).Inc()
			log.Warn("reading_rejected", slog.String("source", "refresh"), slog.Any("err", err))
			return
		}
		c.setCurrent(r)
	})
	fetch(c, provider.OpDevices, seq, log, c.provider.Devices, func(ds []sensor.Device) {
		c.st.devices = ds
	})
	fetch(c, provider.OpSuggestions, seq, log, c.provider.Suggestions, func(ss []sensor.Suggestion) {
		c.st.suggestions.ReplaceAll(ss)
	})
	c.fetchHistorical(seq, log)
}

// fetch runs get off the loop and hands its result back to it.
func fetch[T any](c *Controller, op string, seq uint64, log *slog.Logger, get func(context.Context) (T, error), apply func(T)) {
	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.fetchTimeout)
		defer cancel()
		v, err := get(ctx)
		c.post(func() {
			switch {
			case seq <= c.st.applied[op], err != nil && seq < c.st.refreshSeq:
				c.metrics.Dropped.WithLabelValues(metrics.ReasonStale).Inc()
				log.Debug("stale_response", slog.String("op", op), slog.Any("err", err))
			case err != nil:
				c.fetchFailed(op, log, err)
			default:
				c.st.applied[op] = seq
				apply(v)
			}
			c.partDone(seq, log)
		})
	}()
}

func (c *Controller) fetchFailed(op string, log *slog.Logger, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	if errors.Is(err, provider.ErrNoData) {
		log.Debug("no_data", slog.String("op", op))
		return
	}
	c.metrics.FetchFailures.WithLabelValues(op).Inc()
	c.st.lastError = err.Error()
	c.st.cycleFailed = true
	log.Warn("fetch_failed", slog.String("op", op), slog.Any("err", err))
}

// partDone counts down the current cycle. Parts of superseded cycles are
// ignored so an old cycle can never clear the loading flag of a new one.
func (c *Controller) partDone(seq uint64, log *slog.Logger) {
	if seq == c.st.refreshSeq && c.st.pending > 0 {
		c.st.pending--
		if c.st.pending == 0 {
			c.st.loading = false
			if !c.st.cycleFailed {
				c.st.lastError = ""
			}
			log.Info("refresh_completed",
				slog.Int("points", c.st.buffer.Len()),
				slog.Int("devices", len(c.st.devices)),
				slog.Int("suggestions", c.st.suggestions.Len()))
		}
	}
	c.render()
}

// fetchHistorical loads the active range. Only a response carrying the
// current range generation, and newer than the last one applied, may
// replace the buffer.
func (c *Controller) fetchHistorical(cycle uint64, log *slog.Logger) {
	c.st.histReq++
	tok := histToken{gen: c.st.histGen, id: c.st.histReq, rng: c.st.timeRange, cycle: cycle}
	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.fetchTimeout)
		defer cancel()
		series, err := c.provider.Historical(ctx, tok.rng)
		c.post(func() { c.applyHistorical(tok, series, err, log) })
	}()
}

func (c *Controller) applyHistorical(tok histToken, series []sensor.Reading, err error, log *slog.Logger) {
	current := tok.gen == c.st.histGen
	if current && tok.cycle == 0 {
		c.st.rangeLoad = false
	}
	switch {
	case !current || tok.id <= c.st.histApplied, err != nil && tok.cycle != 0 && tok.cycle < c.st.refreshSeq:
		c.metrics.Dropped.WithLabelValues(metrics.ReasonStale).Inc()
		log.Debug("stale_response", slog.String("op", provider.OpHistorical),
			slog.String("range", tok.rng.String()), slog.String("active", c.st.timeRange.String()))
	case err != nil:
		c.fetchFailed(provider.OpHistorical, log, err)
	default:
		c.st.histApplied = tok.id
		valid := make([]sensor.Reading, 0, len(series))
		for _, r := range series {
			if r.Validate() != nil {
				c.metrics.Dropped.WithLabelValues(metrics.ReasonInvalid).Inc()
				continue
			}
			valid = append(valid, r)
		}
		pts := history.PointsFrom(valid)
		c.st.buffer.ReplaceAll(pts)
		log.Debug("historical_applied", slog.String("range", tok.rng.String()), slog.Int("points", len(pts)))
	}
	if tok.cycle != 0 {
		c.partDone(tok.cycle, log)
		return
	}
	c.render()
}

// changeRange invalidates the chart and reloads history for r.
func (c *Controller) changeRange(r sensor.TimeRange) {
	if r == c.st.timeRange {
		return
	}
	prev := c.st.timeRange
	c.st.timeRange = r
	c.st.histGen++
	c.st.buffer.Reset()
	c.st.rangeLoad = true
	log := c.log.With(slog.Uint64("gen", c.st.histGen))
	log.Info("range_changed", slog.String("from", prev.String()), slog.String("to", r.String()))
	c.render()
	c.fetchHistorical(0, log)
}

// toggleDevice posts the toggle off the loop. Only the device with id is
// touched, and only once the provider has answered with its new status.
func (c *Controller) toggleDevice(id int) {
	log := c.log.With(slog.Int("device", id))
	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.fetchTimeout)
		defer cancel()
		status, err := c.provider.Toggle(ctx, id)
		c.post(func() {
			if err != nil {
				c.metrics.Toggles.WithLabelValues("error").Inc()
				c.st.lastError = fmt.Sprintf("toggle device %d: %v", id, err)
				log.Error("toggle_failed", slog.Any("err", err))
				c.render()
				return
			}
			c.metrics.Toggles.WithLabelValues("ok").Inc()
			for i := range c.st.devices {
				if c.st.devices[i].ID == id {
					c.st.devices[i].Status = status
				}
			}
			c.st.lastError = ""
			log.Info("device_toggled", slog.String("status", string(status)))
			c.render()
		})
	}()
}
