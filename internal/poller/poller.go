// Package poller keeps the control affordances in line with the server's
// authoritative run state.
//
// A poll is issued on every tick whether or not the previous one has
// completed. Responses are applied in the order they arrive, so the surface
// always reflects the most recently received status, not the most recently
// requested one.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"simdash/internal/backend"
	"simdash/internal/surface"

	"github.com/rs/zerolog/log"
)

type StatusSource interface {
	Status(ctx context.Context) (backend.ControlStatus, error)
}

type Metrics interface {
	StatusPollsInc()
	StatusPollFailuresInc()
}

type Poller struct {
	src      StatusSource
	surface  surface.Surface
	interval time.Duration
	metrics  Metrics

	mu       sync.Mutex
	last     backend.ControlStatus
	applied  atomic.Int64
	failures atomic.Int64
	inflight sync.WaitGroup
}

func New(src StatusSource, s surface.Surface, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	return &Poller{src: src, surface: s, interval: interval}
}

func (p *Poller) SetMetrics(m Metrics) { p.metrics = m }

// Run polls on every tick until ctx is done, then waits for in-flight polls.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", p.interval).Msg("Status poller started")
	for {
		select {
		case <-ctx.Done():
			p.inflight.Wait()
			log.Info().Int64("applied", p.applied.Load()).Int64("failures", p.failures.Load()).Msg("Status poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.inflight.Add(1)
			go func() {
				defer p.inflight.Done()
				p.Poll(ctx)
			}()
		}
	}
}

// Poll issues one status request and applies the response on arrival.
// Failures are logged and dropped; the next tick tries again.
func (p *Poller) Poll(ctx context.Context) error {
	if p.metrics != nil {
		p.metrics.StatusPollsInc()
	}

	st, err := p.src.Status(ctx)
	if err != nil {
		p.failures.Add(1)
		if p.metrics != nil {
			p.metrics.StatusPollFailuresInc()
		}
		if ctx.Err() == nil {
			log.Warn().Err(err).Msg("Status poll failed")
		}
		return err
	}

	p.Apply(st)
	return nil
}

// Apply projects st onto the controls. Start is enabled only when idle, stop
// only while running, and the strategy selector is locked during a run.
func (p *Poller) Apply(st backend.ControlStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.surface
	s.SetEnabled(surface.ControlStart, !st.IsRunning)
	s.SetEnabled(surface.ControlStop, st.IsRunning)
	s.SetValue(surface.ControlStrategy, st.ActiveStrategy)
	s.SetEnabled(surface.ControlStrategy, !st.IsRunning)
	if len(st.Strategies) > 0 {
		s.ReplaceList(surface.ControlStrategy, strategyRows(st.Strategies, st.ActiveStrategy))
	}

	if st.IsRunning != p.last.IsRunning || st.ActiveStrategy != p.last.ActiveStrategy {
		log.Debug().Bool("running", st.IsRunning).Str("strategy", st.ActiveStrategy).Msg("Control status changed")
	}
	p.last = st
	p.applied.Add(1)
}

// Last returns the most recently applied status.
func (p *Poller) Last() backend.ControlStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Applied is the number of responses applied so far.
func (p *Poller) Applied() int64 { return p.applied.Load() }

// Failures is the number of polls that returned an error.
func (p *Poller) Failures() int64 { return p.failures.Load() }

func strategyRows(names []string, active string) []surface.Row {
	rows := make([]surface.Row, 0, len(names))
	for _, name := range names {
		class := "option"
		if name == active {
			class = "option selected"
		}
		rows = append(rows, surface.Row{Class: class, Cells: []surface.Cell{{Text: name}}})
	}
	return rows
}
