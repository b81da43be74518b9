// Package live consumes the simulation push channel and keeps the dashboard
// header and lists in step with every snapshot the server emits.
package live

import (
	"context"
	"sync/atomic"

	"simdash/internal/backend"
	"simdash/internal/common"
	"simdash/internal/money"
	"simdash/internal/pnl"
	"simdash/internal/render"
	"simdash/internal/surface"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// StatusComplete is shown once the server reports the run has finished.
const StatusComplete = "Simulation complete"

const unavailable = "--"

// Baseline supplies the investment figure pnl is measured against.
type Baseline interface {
	InitialCash() decimal.Decimal
}

// Metrics is the subset of client metrics the channel reports into.
type Metrics interface {
	SnapshotsInc()
	TradesRenderedAdd(n int)
	MessagesIgnoredInc()
	AccountSet(equity, pnl, returnPct float64)
	UpdatePositions(positions map[string]float64)
}

// Channel turns push frames into surface updates. Frames must be delivered
// one at a time; the stream's read loop does that.
type Channel struct {
	surface  surface.Surface
	baseline Baseline
	metrics  Metrics

	finished atomic.Bool
	updates  atomic.Int64
}

func New(s surface.Surface, b Baseline) *Channel {
	return &Channel{surface: s, baseline: b}
}

func (c *Channel) SetMetrics(m Metrics) { c.metrics = m }

// Run attaches the channel to stream and blocks until the stream stops.
func (c *Channel) Run(ctx context.Context, stream *backend.Stream, errs chan<- error) error {
	return stream.Run(ctx, c.Handle, errs)
}

// Handle decodes one frame and applies it. Undecodable frames are dropped.
func (c *Channel) Handle(data []byte) {
	msg, err := backend.DecodeMessage(data)
	if err != nil {
		log.Debug().Err(err).Int("bytes", len(data)).Msg("Dropping malformed push frame")
		c.ignored()
		return
	}
	c.Apply(msg)
}

// Apply acts on a decoded message. Unknown types are ignored.
func (c *Channel) Apply(msg backend.Message) {
	switch msg.Type {
	case common.MessageUpdate:
		if msg.Snapshot == nil {
			c.ignored()
			return
		}
		c.update(*msg.Snapshot)
	case common.MessageFinished:
		c.finished.Store(true)
		c.surface.SetText(surface.SlotStatus, StatusComplete)
		log.Info().Int64("updates", c.updates.Load()).Msg("Simulation finished")
	default:
		log.Debug().Str("type", msg.Type).Msg("Ignoring push message")
		c.ignored()
	}
}

// Finished reports whether a finished message has been seen.
func (c *Channel) Finished() bool { return c.finished.Load() }

// Updates is the number of snapshots rendered so far.
func (c *Channel) Updates() int64 { return c.updates.Load() }

func (c *Channel) update(snap backend.Snapshot) {
	if c.finished.Swap(false) {
		c.surface.SetText(surface.SlotStatus, "")
	}

	c.header(snap)
	render.Snapshot(c.surface, snap)
	c.updates.Add(1)

	if c.metrics != nil {
		c.metrics.SnapshotsInc()
		c.metrics.TradesRenderedAdd(len(snap.Trades))
		positions := make(map[string]float64, len(snap.Positions))
		for ticker, qty := range snap.Positions {
			positions[ticker] = float64(qty)
		}
		c.metrics.UpdatePositions(positions)
	}
}

func (c *Channel) header(snap backend.Snapshot) {
	s := c.surface
	s.SetText(surface.SlotDate, render.Minute(snap.Timestamp))
	s.SetText(surface.SlotEquity, money.Format(snap.Equity))
	if snap.Cash.Valid {
		s.SetText(surface.SlotCash, money.Format(snap.Cash.Decimal))
	}

	m, err := pnl.Derive(snap.Equity, c.baseline.InitialCash())
	if err != nil {
		log.Warn().Err(err).Str("baseline", c.baseline.InitialCash().String()).Msg("Cannot derive pnl")
		s.SetText(surface.SlotPnL, unavailable)
		s.SetClass(surface.SlotPnL, "value money")
		s.SetText(surface.SlotReturn, unavailable)
		s.SetClass(surface.SlotReturn, "value")
		return
	}

	s.SetText(surface.SlotPnL, money.Format(m.PnL))
	s.SetClass(surface.SlotPnL, "value money "+m.PnLSign.Class())
	s.SetText(surface.SlotReturn, money.Percent(m.ReturnPct))
	s.SetClass(surface.SlotReturn, "value "+m.ReturnSign.Class())

	if c.metrics != nil {
		c.metrics.AccountSet(snap.Equity.InexactFloat64(), m.PnL.InexactFloat64(), m.ReturnPct.InexactFloat64())
	}
}

func (c *Channel) ignored() {
	if c.metrics != nil {
		c.metrics.MessagesIgnoredInc()
	}
}
