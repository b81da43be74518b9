// Package session wires operator commands to the simulation server and owns
// the investment baseline that pnl figures are measured against.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"

	"simdash/internal/backend"
	"simdash/internal/money"
	"simdash/internal/surface"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidInitialCash = errors.New("session: initial cash must be a positive amount")
	ErrEmptyStrategy      = errors.New("session: strategy name is empty")
	ErrControlDisabled    = errors.New("session: control is disabled")
)

// Baseline is the operator's initial investment. The start command is its
// only writer and only while the start control is enabled, so the value is
// fixed for the length of a run. The live channel reads it on every
// snapshot.
type Baseline struct {
	mu   sync.RWMutex
	cash decimal.Decimal
}

func NewBaseline(cash decimal.Decimal) *Baseline {
	return &Baseline{cash: cash}
}

func (b *Baseline) InitialCash() decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cash
}

func (b *Baseline) set(cash decimal.Decimal) {
	b.mu.Lock()
	b.cash = cash
	b.mu.Unlock()
}

// Commander issues commands to the server.
type Commander interface {
	Start(ctx context.Context, req backend.StartRequest) (backend.Ack, error)
	Stop(ctx context.Context) (backend.Ack, error)
	SetStrategy(ctx context.Context, name string) (backend.Ack, error)
}

type Metrics interface {
	CommandsInc(command string)
	CommandFailuresInc(command string)
}

// Controller handles start, stop and strategy selection. Acks are logged
// only; control state is left to the status poller. Start and strategy
// changes are refused while the poller has their controls disabled.
type Controller struct {
	client   Commander
	surface  surface.Surface
	baseline *Baseline
	metrics  Metrics

	mu            sync.Mutex
	initialCash   float64
	brokerCharges bool
}

// New returns a controller whose form starts at initialCash and
// brokerCharges. The baseline starts at initialCash as well.
func New(client Commander, s surface.Surface, initialCash float64, brokerCharges bool) *Controller {
	c := &Controller{
		client:        client,
		surface:       s,
		baseline:      NewBaseline(decimal.NewFromFloat(initialCash)),
		initialCash:   initialCash,
		brokerCharges: brokerCharges,
	}
	c.mirrorForm(initialCash, brokerCharges)
	return c
}

func (c *Controller) SetMetrics(m Metrics) { c.metrics = m }

// Baseline is shared with the live channel.
func (c *Controller) Baseline() *Baseline { return c.baseline }

// Form returns the last entered initial cash and broker-charges toggle.
func (c *Controller) Form() (initialCash float64, brokerCharges bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialCash, c.brokerCharges
}

// Start records initialCash as the new baseline and asks the server to start
// a run. The baseline is updated before the request goes out, so the first
// snapshot of the run is measured against it. While a run is active the
// start control is disabled and Start returns ErrControlDisabled without
// touching the baseline.
func (c *Controller) Start(ctx context.Context, initialCash float64, brokerCharges bool) (backend.Ack, error) {
	if err := c.allowed("start", surface.ControlStart); err != nil {
		return nil, err
	}
	if math.IsNaN(initialCash) || math.IsInf(initialCash, 0) || initialCash <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInitialCash, initialCash)
	}

	c.mu.Lock()
	c.initialCash = initialCash
	c.brokerCharges = brokerCharges
	c.mu.Unlock()
	c.mirrorForm(initialCash, brokerCharges)

	c.baseline.set(decimal.NewFromFloat(initialCash))

	return c.do("start", func() (backend.Ack, error) {
		return c.client.Start(ctx, backend.StartRequest{
			InitialCash:         initialCash,
			EnableBrokerCharges: brokerCharges,
		})
	})
}

func (c *Controller) Stop(ctx context.Context) (backend.Ack, error) {
	return c.do("stop", func() (backend.Ack, error) {
		return c.client.Stop(ctx)
	})
}

// SetStrategy asks the server to switch strategy. It is refused while the
// strategy selector is disabled; whether a name is known is up to the server.
func (c *Controller) SetStrategy(ctx context.Context, name string) (backend.Ack, error) {
	if name == "" {
		return nil, ErrEmptyStrategy
	}
	if err := c.allowed("strategy", surface.ControlStrategy); err != nil {
		return nil, err
	}
	return c.do("strategy", func() (backend.Ack, error) {
		return c.client.SetStrategy(ctx, name)
	})
}

func (c *Controller) allowed(command string, control surface.Slot) error {
	if c.surface.Enabled(control) {
		return nil
	}
	log.Warn().Str("command", command).Str("control", string(control)).Msg("Command refused, control disabled")
	return fmt.Errorf("%s: %w", command, ErrControlDisabled)
}

func (c *Controller) do(command string, send func() (backend.Ack, error)) (backend.Ack, error) {
	if c.metrics != nil {
		c.metrics.CommandsInc(command)
	}

	ack, err := send()
	if err != nil {
		if c.metrics != nil {
			c.metrics.CommandFailuresInc(command)
		}
		log.Warn().Err(err).Str("command", command).Msg("Command failed")
		return nil, fmt.Errorf("%s: %w", command, err)
	}

	log.Info().Str("command", command).Interface("ack", ack).Msg("Command acknowledged")
	return ack, nil
}

func (c *Controller) mirrorForm(initialCash float64, brokerCharges bool) {
	if d, ok := money.FromFloat(initialCash); ok {
		c.surface.SetValue(surface.ControlInitialInvestment, money.Plain(d))
	}
	c.surface.SetValue(surface.ControlBrokerCharges, strconv.FormatBool(brokerCharges))
}
